package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taskflow/internal/domain"
)

// apiClient issues the authoritative list/stats queries the sync client
// refetches after each invalidation.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(base, token string) *apiClient {
	return &apiClient{
		base:  strings.TrimSuffix(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

type listResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Total   int64          `json:"total"`
	Pages   int64          `json:"pages"`
	Data    []*domain.Task `json:"data"`
}

func (a *apiClient) listTasks(ctx context.Context, f domain.TaskFilter, page int) (*listResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}

	var out listResponse
	if err := a.get(ctx, "/api/tasks?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *apiClient) getStats(ctx context.Context) ([]domain.StatusCount, error) {
	var out struct {
		Success bool `json:"success"`
		Data    struct {
			ByStatus []domain.StatusCount `json:"byStatus"`
		} `json:"data"`
	}
	if err := a.get(ctx, "/api/tasks/stats", &out); err != nil {
		return nil, err
	}
	return out.Data.ByStatus, nil
}

func (a *apiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
