package azdo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const apiVersion = "7.0"

// Config holds the connection settings for an Azure DevOps organization.
type Config struct {
	Organization string
	PAT          string
	BaseURL      string

	RequestDelay time.Duration
	MaxRetries   int
}

// Client is the interface for talking to Azure DevOps work item tracking.
type Client interface {
	ListProjects(ctx context.Context) ([]Project, error)
	QueryWorkItemIDs(ctx context.Context, project string, wiql string) ([]int, error)
	GetWorkItemBatch(ctx context.Context, ids []int) ([]WorkItemDTO, error)
	GetWorkItemUpdates(ctx context.Context, id int) ([]UpdateDTO, error)
}

type restClient struct {
	cfg        Config
	httpClient *http.Client

	throttleMutex sync.Mutex
	lastRequest   time.Time
}

// NewClient creates a REST client for the configured organization.
func NewClient(cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://dev.azure.com"
	}
	if cfg.RequestDelay == 0 {
		cfg.RequestDelay = time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &restClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

func (c *restClient) throttle() {
	c.throttleMutex.Lock()
	defer c.throttleMutex.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling Azure DevOps request")
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}

func (c *restClient) authenticateRequest(req *http.Request) {
	// PAT auth uses Basic with an empty user name.
	token := base64.StdEncoding.EncodeToString([]byte(":" + c.cfg.PAT))
	req.Header.Set("Authorization", "Basic "+token)
}

// doJSON performs a throttled, retried request and decodes the response into
// out. Retries cover transient transport errors, 429 and 5xx responses;
// authentication failures abort immediately.
func (c *restClient) doJSON(ctx context.Context, method, url string, body []byte, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 2 * time.Second
			log.Warn().Int("attempt", attempt).Dur("backoff", backoff).Str("url", url).
				Msg("Retrying Azure DevOps request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		c.throttle()

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		c.authenticateRequest(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		err = c.decodeResponse(resp, url, out)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("request failed after %d retries: %w", c.cfg.MaxRetries, lastErr)
}

type statusError struct {
	code       int
	retryAfter string
}

func (e *statusError) Error() string {
	if e.retryAfter != "" {
		return fmt.Sprintf("Azure DevOps rate limit exceeded (429), retry after %s seconds", e.retryAfter)
	}
	return fmt.Sprintf("Azure DevOps API returned status %d", e.code)
}

func isRetryable(err error) bool {
	se, ok := err.(*statusError)
	if !ok {
		return false
	}
	return se.code == http.StatusTooManyRequests || se.code >= 500
}

func (c *restClient) decodeResponse(resp *http.Response, url string, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("Azure DevOps authentication failed (%d), check the personal access token", resp.StatusCode)
		case http.StatusNotFound:
			return fmt.Errorf("Azure DevOps resource not found: %s", url)
		case http.StatusTooManyRequests:
			return &statusError{code: resp.StatusCode, retryAfter: resp.Header.Get("Retry-After")}
		default:
			return &statusError{code: resp.StatusCode}
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Azure DevOps response: %w", err)
	}
	return nil
}

func (c *restClient) orgURL(path string) string {
	return fmt.Sprintf("%s/%s/%s?api-version=%s", c.cfg.BaseURL, c.cfg.Organization, path, apiVersion)
}

func (c *restClient) ListProjects(ctx context.Context) ([]Project, error) {
	var result struct {
		Count int       `json:"count"`
		Value []Project `json:"value"`
	}

	log.Info().Str("organization", c.cfg.Organization).Msg("Listing projects")
	if err := c.doJSON(ctx, http.MethodGet, c.orgURL("_apis/projects"), nil, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

func (c *restClient) QueryWorkItemIDs(ctx context.Context, project string, wiql string) ([]int, error) {
	body, err := json.Marshal(map[string]string{"query": wiql})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/%s/_apis/wit/wiql?api-version=%s",
		c.cfg.BaseURL, c.cfg.Organization, project, apiVersion)

	var result struct {
		WorkItems []struct {
			ID int `json:"id"`
		} `json:"workItems"`
	}

	log.Info().Str("project", project).Msg("Querying work item IDs")
	log.Debug().Str("wiql", wiql).Msg("WIQL query")
	if err := c.doJSON(ctx, http.MethodPost, url, body, &result); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(result.WorkItems))
	for _, wi := range result.WorkItems {
		ids = append(ids, wi.ID)
	}
	return ids, nil
}

// GetWorkItemBatch fetches up to 200 work items in one call, the API limit.
func (c *restClient) GetWorkItemBatch(ctx context.Context, ids []int) ([]WorkItemDTO, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > 200 {
		return nil, fmt.Errorf("batch of %d exceeds the 200 item limit", len(ids))
	}

	body, err := json.Marshal(map[string]interface{}{
		"ids":    ids,
		"fields": workItemFields,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Count int           `json:"count"`
		Value []WorkItemDTO `json:"value"`
	}

	log.Debug().Int("count", len(ids)).Msg("Fetching work item batch")
	if err := c.doJSON(ctx, http.MethodPost, c.orgURL("_apis/wit/workitemsbatch"), body, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

func (c *restClient) GetWorkItemUpdates(ctx context.Context, id int) ([]UpdateDTO, error) {
	var result struct {
		Count int         `json:"count"`
		Value []UpdateDTO `json:"value"`
	}

	url := c.orgURL("_apis/wit/workItems/" + strconv.Itoa(id) + "/updates")
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}
