package config

import (
	"sort"
	"strings"
	"sync"

	"grimm.is/spring/internal/errors"
)

// DebugEnableKey toggles the debug log file.
const DebugEnableKey = "spring.debug.enable"

// Store is the live option map. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	options map[string]string
}

// NewStore creates a store seeded with a copy of options.
func NewStore(options map[string]string) *Store {
	s := &Store{options: make(map[string]string, len(options))}
	for k, v := range options {
		s.options[k] = v
	}
	return s
}

// GetOption returns the value of key and whether it is set.
func (s *Store) GetOption(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.options[key]
	return v, ok
}

// GetBoolOption reports whether key is "1" or "on". Unset is false.
func (s *Store) GetBoolOption(key string) bool {
	v, _ := s.GetOption(key)
	return v == "1" || v == "on"
}

// SetOption applies a "key=value" assignment.
func (s *Store) SetOption(assignment string) error {
	key, value, ok := strings.Cut(assignment, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return errors.Errorf(errors.KindArgument, "option assignment %q must be key=value", assignment)
	}
	s.Set(key, value)
	return nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options[key] = value
}

// Keys returns the option names in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.options))
	for k := range s.options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
