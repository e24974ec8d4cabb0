// Package matchers picks the profile that best fits the currently connected outputs.
package matchers

import (
	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/sirupsen/logrus"
)

type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match scores every profile by the number of leading monitors whose output is connected
// and returns the best one; ties go to the profile declared first. With
// auto_select.require_full_match only profiles whose every output is connected compete.
func (m *Matcher) Match(cfg *config.Config, connectedOutputs []string) *MatchedProfile {
	connected := make(map[string]bool, len(connectedOutputs))
	for _, name := range connectedOutputs {
		connected[name] = true
	}

	var best *MatchedProfile
	bestScore := -1
	for _, profile := range cfg.Profiles {
		score, full := m.scoreProfile(profile, connected)
		fields := logrus.Fields{"profile": profile.Name, "score": score, "full_match": full}
		if *cfg.AutoSelect.RequireFullMatch && !full {
			logrus.WithFields(fields).Debug("Profile discarded, not every output is connected")
			continue
		}
		logrus.WithFields(fields).Debug("Profile scored")

		if score > bestScore {
			bestScore = score
			best = &MatchedProfile{Profile: profile, Score: score, FullMatch: full}
		}
	}

	return best
}

func (m *Matcher) scoreProfile(profile *config.Profile, connected map[string]bool) (int, bool) {
	score := 0
	for _, monitor := range profile.Monitors {
		if !connected[monitor.Output] {
			return score, false
		}
		score++
	}
	return score, true
}

type MatchedProfile struct {
	Profile   *config.Profile
	Score     int
	FullMatch bool
}
