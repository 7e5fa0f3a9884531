package query

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/klubi/adminctl/pkg/client"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// fakeAPI is an in-memory stand-in for the REST API that counts requests.
// When gate is set, GET requests block until it is closed.
type fakeAPI struct {
	mu     sync.Mutex
	calls  map[string]int
	items  []item
	nextID int
	gate   chan struct{}
	err    error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:  make(map[string]int),
		items:  []item{},
		nextID: 5,
	}
}

func (f *fakeAPI) hold() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *fakeAPI) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeAPI) count(method, url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+url]
}

func (f *fakeAPI) Do(ctx context.Context, req client.Request) (*client.Response, error) {
	f.mu.Lock()
	f.calls[req.Method+" "+req.URL]++
	gate, err := f.gate, f.err
	f.mu.Unlock()

	if gate != nil && req.Method == http.MethodGet {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case req.Method == http.MethodGet && req.URL == "/api/items/all":
		return jsonResponse(f.items)
	case req.Method == http.MethodGet && req.URL == "/api/items":
		id, _ := strconv.Atoi(req.Params["id"])
		for _, it := range f.items {
			if it.ID == id {
				return jsonResponse(it)
			}
		}
		return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "item not found"}
	case req.Method == http.MethodPost && req.URL == "/api/items/post":
		it := item{ID: f.nextID, Name: req.Params["name"]}
		f.nextID++
		f.items = append(f.items, it)
		return jsonResponse(it)
	case req.Method == http.MethodDelete && req.URL == "/api/items":
		id, _ := strconv.Atoi(req.Params["id"])
		for i, it := range f.items {
			if it.ID == id {
				f.items = append(f.items[:i], f.items[i+1:]...)
				return jsonResponse(map[string]string{"message": "item with id " + req.Params["id"] + " deleted"})
			}
		}
		return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "item not found"}
	}
	return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "no route"}
}

func jsonResponse(v interface{}) (*client.Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &client.Response{StatusCode: http.StatusOK, Data: b}, nil
}
