package robot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const jointMTL = `newmtl steel
Ka 0.1 0.1 0.1
Kd 0.6 0.6 0.65
Ks 0.3 0.3 0.3
Ns 20
d 1
`

// jointOBJ returns a single-triangle object named after the joint.
func jointOBJ(id string) string {
	return fmt.Sprintf(`o %s
v 0 0 0
v 10 0 0
v 0 10 0
vn 0 0 1
usemtl steel
f 1//1 2//1 3//1
`, id)
}

// testGeometry returns a pose for joint i that is distinct for every joint.
func testGeometry(i int) Pose {
	return Pose{float64(i) * 10, float64(i) + 1, -float64(i), 0.1 * float64(i), 0, 0.05}
}

// robotFiles generates the manifest and joint assets of an n-joint robot named J0..Jn-1.
func robotFiles(t *testing.T, n int) map[string]string {
	t.Helper()
	doc := manifestDocument{}
	files := make(map[string]string)
	for i := range n {
		id := fmt.Sprintf("J%d", i)
		pose := testGeometry(i)
		doc.Schema = append(doc.Schema, id)
		doc.Geometry = append(doc.Geometry, pose[:])
		files[id+".mtl"] = jointMTL
		files[id+".obj"] = jointOBJ(id)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	files[ManifestFile] = string(data)
	return files
}

// assetServer serves robot files under /robot/ and records every request.
type assetServer struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string]string
	statuses map[string]int
	requests []string
}

func newAssetServer(t *testing.T, files map[string]string) *assetServer {
	t.Helper()
	s := &assetServer{files: files, statuses: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *assetServer) serve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/robot/")

	s.mu.Lock()
	s.requests = append(s.requests, r.URL.RequestURI())
	status, forced := s.statuses[name]
	body, ok := s.files[name]
	s.mu.Unlock()

	if forced {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

// setStatus forces every request for name to answer with status. Zero clears it.
func (s *assetServer) setStatus(name string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.statuses, name)
		return
	}
	s.statuses[name] = status
}

func (s *assetServer) setFile(name, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = body
}

// count returns how many requests were made for name.
func (s *assetServer) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.requests {
		path, _, _ := strings.Cut(req, "?")
		if path == "/robot/"+name {
			n++
		}
	}
	return n
}

func (s *assetServer) requestURIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *assetServer) robotPath() string {
	return s.URL + "/robot/"
}

// fixedClock returns a clock frozen at a known instant.
func fixedClock() func() time.Time {
	at := time.UnixMilli(1700000000123)
	return func() time.Time { return at }
}
