// Package quota holds the pure quota arithmetic: the typed policy settings,
// the derived project cap / assignable pool, and the sliding-window helpers.
// Nothing in here touches storage.
package quota

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// Window is the sliding window every usage count is taken over
	Window = 24 * time.Hour

	// ExpiringSoonHorizon bounds the "hits expiring soon" hint
	ExpiringSoonHorizon = time.Hour

	// MaxValue caps any stored setting so the percentage products cannot overflow
	MaxValue = math.MaxInt32
)

type Key string

const (
	KeyProjectFreeLimit  Key = "PROJECT_FREE_LIMIT"
	KeyProjectCapPercent Key = "PROJECT_CAP_PERCENT"
	KeyAssignablePercent Key = "ASSIGNABLE_PERCENT"
	KeyDefaultUserLimit  Key = "DEFAULT_USER_LIMIT"
	KeyCacheTTLSeconds   Key = "CACHE_TTL_SECONDS"
)

// Keys is the complete, ordered set of settings. Nothing else is read.
var Keys = []Key{
	KeyAssignablePercent,
	KeyCacheTTLSeconds,
	KeyDefaultUserLimit,
	KeyProjectCapPercent,
	KeyProjectFreeLimit,
}

type Default struct {
	Value       int
	Description string
}

var Defaults = map[Key]Default{
	KeyProjectFreeLimit:  {1000, "Total free API hits per day from the upstream weather API"},
	KeyProjectCapPercent: {80, "Percentage of free limit we actually use (safety margin)"},
	KeyAssignablePercent: {95, "Percentage of project cap assignable to users"},
	KeyDefaultUserLimit:  {10, "Default daily API limit for new users"},
	KeyCacheTTLSeconds:   {60, "Cache time-to-live in seconds"},
}

func (k Key) IsValid() bool {
	_, ok := Defaults[k]
	return ok
}

func (k Key) IsPercent() bool {
	return k == KeyProjectCapPercent || k == KeyAssignablePercent
}

// AffectsPool reports whether changing k changes the assignable pool
func (k Key) AffectsPool() bool {
	return k == KeyProjectFreeLimit || k == KeyProjectCapPercent || k == KeyAssignablePercent
}

// ParseValue validates a raw setting value for key k.
func ParseValue(k Key, raw string) (int, error) {
	if !k.IsValid() {
		return 0, fmt.Errorf("unknown config key %q", k)
	}

	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", k)
	}

	return v, CheckValue(k, v)
}

func CheckValue(k Key, v int) error {
	if !k.IsValid() {
		return fmt.Errorf("unknown config key %q", k)
	}
	if v < 0 {
		return fmt.Errorf("%s must be a non-negative integer", k)
	}
	if v > MaxValue {
		return fmt.Errorf("%s must not exceed %d", k, MaxValue)
	}
	if k.IsPercent() && (v < 1 || v > 100) {
		return fmt.Errorf("%s must be between 1 and 100", k)
	}
	return nil
}

// Settings is the strongly typed view of the stored policy
type Settings struct {
	ProjectFreeLimit  int
	ProjectCapPercent int
	AssignablePercent int
	DefaultUserLimit  int
	CacheTTLSeconds   int
}

func DefaultSettings() Settings {
	s := Settings{}
	for k, d := range Defaults {
		s = s.With(k, d.Value)
	}
	return s
}

func (s Settings) Get(k Key) int {
	switch k {
	case KeyProjectFreeLimit:
		return s.ProjectFreeLimit
	case KeyProjectCapPercent:
		return s.ProjectCapPercent
	case KeyAssignablePercent:
		return s.AssignablePercent
	case KeyDefaultUserLimit:
		return s.DefaultUserLimit
	case KeyCacheTTLSeconds:
		return s.CacheTTLSeconds
	default:
		return 0
	}
}

// With returns a copy of s with k set to v
func (s Settings) With(k Key, v int) Settings {
	switch k {
	case KeyProjectFreeLimit:
		s.ProjectFreeLimit = v
	case KeyProjectCapPercent:
		s.ProjectCapPercent = v
	case KeyAssignablePercent:
		s.AssignablePercent = v
	case KeyDefaultUserLimit:
		s.DefaultUserLimit = v
	case KeyCacheTTLSeconds:
		s.CacheTTLSeconds = v
	}
	return s
}

func (s Settings) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

func (s Settings) Policy() Policy {
	return Compute(s.ProjectFreeLimit, s.ProjectCapPercent, s.AssignablePercent)
}

// Policy is derived on every read and never persisted.
type Policy struct {
	ProjectFreeLimit  int `json:"PROJECT_FREE_LIMIT"`
	ProjectCapPercent int `json:"PROJECT_CAP_PERCENT"`
	AssignablePercent int `json:"ASSIGNABLE_PERCENT"`
	ProjectCap        int `json:"PROJECT_CAP"`
	AssignablePool    int `json:"ASSIGNABLE_POOL"`
	ReservedBuffer    int `json:"RESERVED_BUFFER"`
}

// Compute truncates at each step so the pool can never overcommit the
// upstream cap. Negative inputs are treated as zero.
func Compute(freeLimit, capPercent, assignablePercent int) Policy {
	freeLimit = max(freeLimit, 0)
	capPercent = max(capPercent, 0)
	assignablePercent = max(assignablePercent, 0)

	projectCap := int(int64(freeLimit) * int64(capPercent) / 100)
	pool := int(int64(projectCap) * int64(assignablePercent) / 100)

	return Policy{
		ProjectFreeLimit:  freeLimit,
		ProjectCapPercent: capPercent,
		AssignablePercent: assignablePercent,
		ProjectCap:        projectCap,
		AssignablePool:    pool,
		ReservedBuffer:    projectCap - pool,
	}
}

// PercentUsed is floor(used/limit*100), or 0 without a limit
func PercentUsed(used, limit int64) int {
	if limit <= 0 {
		return 0
	}
	return int(used * 100 / limit)
}

// WindowStart is the inclusive lower bound of the window ending at now
func WindowStart(now time.Time) time.Time {
	return now.Add(-Window)
}

// NextAvailableMessage renders the wait until next, omitting zero leading units.
// Seconds are rounded up so the message never promises a slot early.
func NextAvailableMessage(wait time.Duration) string {
	if wait < 0 {
		wait = 0
	}

	total := int64(math.Ceil(wait.Seconds()))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	switch {
	case h > 0:
		return fmt.Sprintf("Next available in %dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("Next available in %dm %ds", m, s)
	default:
		return fmt.Sprintf("Next available in %ds", s)
	}
}
