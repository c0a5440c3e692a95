package redis

import "github.com/panda19/prisonscore/internal/model"

// profileKey holds one JSON record per profile
func (s *Storage) profileKey(id model.ProfileID) string {
	return s.cfg.Key("profile", id.String())
}
