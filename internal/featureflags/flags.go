// Package featureflags evaluates the FEATURE_FLAGS switches that gate public
// surfaces such as signup, the contact form and donation intake.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags. Every known flag is enabled unless configured otherwise.
const (
	Signup      = "signup"
	ContactForm = "contact_form"
	Donations   = "donations"
	Comments    = "comments"
	Likes       = "likes"
)

var known = []string{Signup, ContactForm, Donations, Comments, Likes}

// Set holds parsed flag values, e.g. "signup=off,likes=25%".
type Set struct {
	values map[string]string
}

// Parse builds a Set from a comma-separated key=value list. Malformed pairs
// are skipped.
func Parse(raw string) *Set {
	values := make(map[string]string, len(known))
	for _, name := range known {
		values[name] = "on"
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		values[key] = value
	}
	return &Set{values: values}
}

// Enabled reports whether name is on for the given account. Percentage
// rollouts bucket accounts deterministically and never include anonymous
// callers (userID 0). A nil Set enables everything known.
func (s *Set) Enabled(name string, userID uint) bool {
	name = normalize(name)
	if s == nil {
		for _, k := range known {
			if k == name {
				return true
			}
		}
		return false
	}

	value, ok := s.values[name]
	if !ok {
		return false
	}
	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < pct
}

// Snapshot evaluates every configured flag for one account.
func (s *Set) Snapshot(userID uint) map[string]bool {
	if s == nil {
		s = Parse("")
	}
	out := make(map[string]bool, len(s.values))
	for name := range s.values {
		out[name] = s.Enabled(name, userID)
	}
	return out
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", name, userID)))
	return int(h.Sum32() % 100)
}
