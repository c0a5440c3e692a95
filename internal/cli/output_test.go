package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panda19/prisonscore/internal/api/response"
)

func TestPrintProfileText(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("text", &buf).Print(response.Profile{
		ID:               "abc",
		DisplayName:      "Alice",
		Level:            3,
		Experience:       35,
		XPToNextLevel:    132.25,
		Progress:         0.25,
		Prestige:         1,
		Balance:          10.5,
		RewardMultiplier: 1.25,
		Online:           true,
	})

	out := buf.String()
	assert.Contains(t, out, "Profile: Alice (abc, online)")
	assert.Contains(t, out, "Level: 3 (35 / 132.25 XP, 25%)")
	assert.Contains(t, out, "Prestige: 1 (x1.25 rewards)")
	assert.Contains(t, out, "Balance: 10.5")
	assert.NotContains(t, out, "Last seen")
}

func TestPrintProfileListTable(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("text", &buf).Print(response.ProfileList{Profiles: []response.Profile{
		{ID: "1", DisplayName: "Amy", Level: 4},
		{ID: "2", DisplayName: "Zed", Level: 9},
	}})

	out := buf.String()
	assert.Contains(t, out, "Amy")
	assert.Contains(t, out, "Zed")
	assert.Contains(t, strings.ToUpper(out), "LEVEL")
}

func TestPrintEmptyProfileList(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("text", &buf).Print(response.ProfileList{})
	assert.Equal(t, "No players online\n", buf.String())
}

func TestPrintYieldWithPrestige(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("text", &buf).Print(response.YieldResponse{
		Resource: "DIAMOND_ORE",
		Mineable: true,
		XP:       25,
		Money:    15,
		Progress: response.Progress{
			Gained:   25,
			LevelUp:  &response.LevelUp{OldLevel: 1, NewLevel: 2},
			Prestige: "applied",
			PrestigeDetails: &response.Prestige{
				NewPrestige:         1,
				OldRewardMultiplier: 1,
				NewRewardMultiplier: 1.25,
			},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "DIAMOND_ORE: +25 XP, +15 money")
	assert.Contains(t, out, "Level up! 1 -> 2")
	assert.Contains(t, out, "PRESTIGE 1! Rewards x1 -> x1.25")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("json", &buf).Print(response.SaveResponse{Scheduled: 3})

	var got response.SaveResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 3, got.Scheduled)
}

func TestPrintMessageJSON(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("json", &buf).PrintMessage("Left: x")
	assert.JSONEq(t, `{"message":"Left: x"}`, buf.String())
}

func TestNumRoundsToCents(t *testing.T) {
	assert.Equal(t, "1.23", num(1.2345))
	assert.Equal(t, "2", num(2.0))
}
