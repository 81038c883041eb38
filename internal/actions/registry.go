package actions

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry = make(map[string]Action)
	mu       sync.RWMutex
)

func Register(a Action) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[a.ID()]; exists {
		panic(fmt.Sprintf("action %s already registered", a.ID()))
	}
	// Wrap the action with SkipListWrapper to provide automatic skip-list support
	registry[a.ID()] = &SkipListWrapper{Action: a}
}

func List() []Action {
	mu.RLock()
	defer mu.RUnlock()
	var all []Action
	for _, a := range registry {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID() < all[j].ID()
	})
	return all
}

// Resolve selects actions by a comma-separated ID list.
//
// Unlike the scan-style tools, an empty selector resolves to NO actions:
// mutations must be opted into explicitly.
func Resolve(selector string) ([]Action, error) {
	mu.RLock()
	defer mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		return nil, nil
	}

	ids := strings.Split(selector, ",")
	var selected []Action
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if a, ok := registry[id]; ok {
			selected = append(selected, a)
		} else {
			return nil, fmt.Errorf("action not found: %s", id)
		}
	}
	return selected, nil
}
