package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/panda19/prisonscore/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// TokenResult is a freshly generated admin token
type TokenResult struct {
	Token string `json:"token"`
	Hash  string `json:"hash"`
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Profile:
		o.printProfile(v)
	case response.ProfileList:
		o.printProfileList(v)
	case response.YieldResponse:
		o.printYield(v)
	case response.DeathResponse:
		o.printf("Lost %s XP\n", num(v.Lost))
		o.printProfile(v.Profile)
	case response.GrantResponse:
		o.printProgress(v.Progress)
		o.printProfile(v.Profile)
	case response.SaveResponse:
		o.printf("Queued %d profile save(s)\n", v.Scheduled)
	case response.ReloadResponse:
		o.printReload(v)
	case response.Health:
		o.printf("Status: %s\n", v.Status)
		o.printf("Online: %d\n", v.Online)
		o.printf("Pending saves: %d\n", v.Pending)
	case TokenResult:
		o.printf("Token: %s\n", v.Token)
		o.printf("Hash:  %s\n", v.Hash)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printProfile(p response.Profile) {
	status := "offline"
	if p.Online {
		status = "online"
	}
	o.printf("Profile: %s (%s, %s)\n", p.DisplayName, p.ID, status)
	o.printf("Level: %d (%s / %s XP, %.0f%%)\n", p.Level, num(p.Experience), num(p.XPToNextLevel), p.Progress*100)
	o.printf("Prestige: %d (x%s rewards)\n", p.Prestige, num(p.RewardMultiplier))
	o.printf("Balance: %s\n", num(p.Balance))
	if !p.LastSeen.IsZero() {
		o.printf("Last seen: %s\n", p.LastSeen.Format(time.RFC3339))
	}
}

func (o *Output) printProfileList(l response.ProfileList) {
	if len(l.Profiles) == 0 {
		o.printf("No players online\n")
		return
	}
	table := tablewriter.NewTable(o.w,
		tablewriter.WithHeader([]string{"Name", "ID", "Level", "XP", "Prestige", "Balance"}),
	)
	for _, p := range l.Profiles {
		_ = table.Append([]string{
			p.DisplayName,
			p.ID,
			strconv.Itoa(p.Level),
			num(p.Experience),
			strconv.Itoa(p.Prestige),
			num(p.Balance),
		})
	}
	_ = table.Render()
}

func (o *Output) printYield(y response.YieldResponse) {
	if !y.Mineable {
		o.printf("%s gives no rewards\n", y.Resource)
		return
	}
	o.printf("%s: +%s XP, +%s money\n", y.Resource, num(y.XP), num(y.Money))
	o.printProgress(y.Progress)
	o.printProfile(y.Profile)
}

func (o *Output) printProgress(p response.Progress) {
	if p.LevelUp != nil {
		o.printf("Level up! %d -> %d\n", p.LevelUp.OldLevel, p.LevelUp.NewLevel)
	}
	switch p.Prestige {
	case "applied":
		if d := p.PrestigeDetails; d != nil {
			o.printf("PRESTIGE %d! Rewards x%s -> x%s\n", d.NewPrestige, num(d.OldRewardMultiplier), num(d.NewRewardMultiplier))
		}
	case "vetoed":
		o.printf("Prestige was blocked\n")
	}
	if p.SafetyLimitHit {
		o.printf("Warning: level-up safety limit reached\n")
	}
}

func (o *Output) printReload(r response.ReloadResponse) {
	if r.Clean {
		o.printf("Policy reloaded (config version %d)\n", r.ConfigVersion)
	} else {
		o.printf("Policy reloaded with errors, defaults in use: %s\n", r.Error)
	}
	o.printf("Re-checked %d online profile(s)\n", r.Revalidated)
}

// num formats with at most two decimals
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
