package compute

import (
	"io"
	"log"
	"sort"
	"sync"

	"github.com/gbl08ma/sqalx"
	"github.com/underlx/tflstatus/dataobjects"
)

var rootSqalxNode sqalx.Node
var mainLog = log.New(io.Discard, "", 0)

// Initialize initializes the package
func Initialize(snode sqalx.Node, log *log.Logger) {
	rootSqalxNode = snode
	if log != nil {
		mainLog = log
	}
}

// SummarizeModes summarizes every line of the given modes, or of all known
// modes when none are given. Up to threads modes are summarized at once, each
// in its own transaction on the node passed to Initialize
func SummarizeModes(modes []string, window dataobjects.ObservationFilter, breakdown bool, threads int) ([]LineSummary, error) {
	if len(modes) == 0 {
		known, err := dataobjects.GetModes(rootSqalxNode)
		if err != nil {
			return []LineSummary{}, err
		}
		for _, mode := range known {
			modes = append(modes, mode.Name)
		}
	}
	if threads < 1 {
		threads = 1
	}

	summaries := []LineSummary{}
	var firstErr error
	var wg sync.WaitGroup
	var appendMutex sync.Mutex
	launched := 0
	for _, mode := range modes {
		wg.Add(1)
		go func(mode string) {
			defer wg.Done()
			s, err := SummarizeMode(rootSqalxNode, mode, window, breakdown)
			appendMutex.Lock()
			defer appendMutex.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			summaries = append(summaries, s...)
		}(mode)
		launched++
		if launched >= threads {
			wg.Wait()
			launched = 0
		}
	}
	wg.Wait()
	if firstErr != nil {
		return []LineSummary{}, firstErr
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Mode == summaries[j].Mode {
			return summaries[i].Line < summaries[j].Line
		}
		return summaries[i].Mode < summaries[j].Mode
	})
	return summaries, nil
}
