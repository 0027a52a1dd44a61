package lookup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hochfrequenz/padsched/internal/domain"
)

// TopologicalSort returns task names so that every task follows all of its
// prerequisites. Ties keep the order of names. A prerequisite graph with a
// cycle yields ErrCyclicTasks naming the tasks that could not be ordered.
func TopologicalSort(names []string, tasks map[string]*domain.Task) ([]string, error) {
	inDegree := make(map[string]int, len(names))
	dependents := make(map[string][]string)
	for _, name := range names {
		inDegree[name] = 0
	}
	for _, name := range names {
		for _, prev := range tasks[name].PreviousTasks {
			if _, ok := tasks[prev]; !ok {
				return nil, fmt.Errorf("task %q requires %q: %w", name, prev, ErrUnknownTask)
			}
			inDegree[name]++
			dependents[prev] = append(dependents[prev], name)
		}
	}

	var queue []string
	for _, name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	result := make([]string, 0, len(names))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, name)

		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(result) < len(names) {
		var stuck []string
		for _, name := range names {
			if inDegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: %s", ErrCyclicTasks, strings.Join(stuck, ", "))
	}

	return result, nil
}
