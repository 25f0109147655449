package cli_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rshade/beacondash/internal/cli"
	"github.com/rshade/beacondash/internal/config"
)

// isolate points every beacondash path at a temp dir and clears the
// environment overrides a developer machine may carry.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("BEACONDASH_HOME", home)
	t.Setenv("BEACONDASH_CONFIG", "")
	t.Setenv("BEACONDASH_TAVERN_URL", "")
	t.Setenv("BEACONDASH_TOKEN", "")
	t.Setenv("BEACONDASH_LOG_LEVEL", "error")
	t.Setenv("BEACONDASH_CACHE_DIR", "")
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// tavernServer serves n hosts over the id page and batch queries.
type tavernServer struct {
	*httptest.Server

	n int

	mu   sync.Mutex
	ops  []string
	vars map[string]map[string]any
}

func newTavernServer(t *testing.T, n int) *tavernServer {
	t.Helper()
	s := &tavernServer{n: n, vars: map[string]map[string]any{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *tavernServer) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.ops = append(s.ops, req.OperationName)
	s.vars[req.OperationName] = req.Variables
	s.mu.Unlock()

	var data string
	switch req.OperationName {
	case "GetHostIds":
		offset := 0
		if after, ok := req.Variables["after"].(string); ok {
			_, _ = fmt.Sscanf(after, "c%d", &offset)
		}
		first, _ := req.Variables["first"].(float64)
		end := min(offset+int(first), s.n)
		edges := make([]string, 0, end-offset)
		for i := offset; i < end; i++ {
			edges = append(edges, fmt.Sprintf(`{"node":{"id":"h%d"}}`, i))
		}
		data = fmt.Sprintf(`{"hosts":{"pageInfo":{"hasNextPage":%t,"endCursor":"c%d"},"totalCount":%d,"edges":[%s]}}`,
			end < s.n, end, s.n, strings.Join(edges, ","))
	case "GetHostsByIds":
		ids, _ := req.Variables["ids"].([]any)
		edges := make([]string, 0, len(ids))
		for _, id := range ids {
			edges = append(edges, fmt.Sprintf(`{"node":{"id":%q,"name":"name-%s","platform":"PLATFORM_LINUX"}}`, id, id))
		}
		data = fmt.Sprintf(`{"hosts":{"edges":[%s]}}`, strings.Join(edges, ","))
	default:
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"data":null,"errors":[{"message":"unexpected operation %s"}]}`, req.OperationName)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"data":%s}`, data)
}

func (s *tavernServer) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.ops {
		if o == op {
			n++
		}
	}
	return n
}

func (s *tavernServer) lastVars(op string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars[op]
}
