package drive115

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"drivemover/internal/config"
	"drivemover/internal/remote"
)

// PageSize is the number of entries requested per listing page.
const PageSize = 1000

// maxBody bounds how much of a response is read.
const maxBody = 32 << 20

// authErrnos are API error numbers that mean the session is no longer valid.
var authErrnos = map[int]struct{}{
	990001: {},
	99:     {},
}

// HTTPDoer describes the HTTP client used by the drive client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	AccountURL string
	UserAgent  string
	Cookie     string
	HTTPClient HTTPDoer
	PageSize   int
}

// Client talks to the 115 web API.
type Client struct {
	baseURL    string
	accountURL string
	userAgent  string
	cookie     string
	http       HTTPDoer
	pageSize   int
}

var _ remote.Client = (*Client)(nil)

// New constructs a client from explicit options.
func New(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = PageSize
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		accountURL: strings.TrimSpace(opts.AccountURL),
		userAgent:  strings.TrimSpace(opts.UserAgent),
		cookie:     strings.TrimSpace(opts.Cookie),
		http:       client,
		pageSize:   pageSize,
	}
}

// NewFromConfig builds a client for the configured endpoints using cookie.
func NewFromConfig(cfg *config.Config, cookie string) *Client {
	return New(Options{
		BaseURL:    cfg.Remote.BaseURL,
		AccountURL: cfg.Remote.AccountURL,
		UserAgent:  cfg.Remote.UserAgent,
		Cookie:     cookie,
	})
}

// ListSubfolders returns the immediate subfolders of folderID.
func (c *Client) ListSubfolders(ctx context.Context, folderID remote.FolderID) ([]remote.Folder, error) {
	entries, err := c.listAll(ctx, folderID, true)
	if err != nil {
		return nil, err
	}
	folders := make([]remote.Folder, 0, len(entries))
	for _, entry := range entries {
		if !entry.isFolder() {
			continue
		}
		parent := remote.FolderID(entry.ParentID)
		if parent == "" {
			parent = folderID
		}
		folders = append(folders, remote.Folder{
			ID:       remote.FolderID(entry.FolderID),
			Name:     entry.Name,
			ParentID: parent,
		})
	}
	return folders, nil
}

// ListFiles returns the files under folderID. When recursive is set, nested
// folders are walked breadth first and each File.Path is relative to folderID.
func (c *Client) ListFiles(ctx context.Context, folderID remote.FolderID, recursive bool) ([]remote.File, error) {
	type pending struct {
		id   remote.FolderID
		path string
	}
	queue := []pending{{id: folderID}}
	var files []remote.File
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		entries, err := c.listAll(ctx, current.id, false)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.isFolder() {
				if recursive {
					queue = append(queue, pending{
						id:   remote.FolderID(entry.FolderID),
						path: remote.JoinPath(current.path, entry.Name),
					})
				}
				continue
			}
			files = append(files, remote.File{
				ID:       string(entry.FileID),
				Name:     entry.Name,
				Size:     int64(entry.Size),
				Path:     remote.JoinPath(current.path, entry.Name),
				ParentID: current.id,
			})
		}
	}
	return files, nil
}

// MoveItems moves ids into target. A refusal by the API is reported in the
// result; transport and HTTP failures are returned as errors.
func (c *Client) MoveItems(ctx context.Context, ids []string, target remote.FolderID) (remote.MoveResult, error) {
	if len(ids) == 0 {
		return remote.MoveResult{Success: true}, nil
	}
	form := url.Values{}
	form.Set("pid", string(target))
	for i, id := range ids {
		form.Set("fid["+strconv.Itoa(i)+"]", id)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/move", strings.NewReader(form.Encode()))
	if err != nil {
		return remote.MoveResult{}, fmt.Errorf("build move request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var env envelope
	if err := c.do(req, "move", &env); err != nil {
		return remote.MoveResult{}, err
	}
	if env.State {
		return remote.MoveResult{Success: true}, nil
	}
	return remote.MoveResult{Success: false, ErrorMessage: env.message(), ErrorCode: env.code()}, nil
}

// AccountIdentity fetches the logged-in account, which only succeeds with a
// valid session cookie.
func (c *Client) AccountIdentity(ctx context.Context) (remote.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.accountURL, nil)
	if err != nil {
		return remote.Identity{}, fmt.Errorf("build account request: %w", err)
	}
	var resp accountResponse
	if err := c.do(req, "account", &resp); err != nil {
		return remote.Identity{}, err
	}
	if !resp.State {
		return remote.Identity{}, apiError("account", resp.envelope)
	}
	return remote.Identity{
		Success:  true,
		UserID:   string(resp.Data.UserID),
		UserName: resp.Data.UserName,
	}, nil
}

func (c *Client) listAll(ctx context.Context, folderID remote.FolderID, foldersOnly bool) ([]listEntry, error) {
	var all []listEntry
	offset := 0
	for {
		page, total, err := c.listPage(ctx, folderID, offset, foldersOnly)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		offset += len(page)
		if len(page) == 0 || len(page) < c.pageSize || offset >= total {
			return all, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, folderID remote.FolderID, offset int, foldersOnly bool) ([]listEntry, int, error) {
	query := url.Values{}
	query.Set("aid", "1")
	query.Set("cid", string(folderID))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(c.pageSize))
	query.Set("show_dir", "1")
	query.Set("format", "json")
	if foldersOnly {
		query.Set("nf", "1")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build list request: %w", err)
	}
	var resp listResponse
	if err := c.do(req, "list", &resp); err != nil {
		return nil, 0, err
	}
	if !resp.State {
		return nil, 0, apiError("list", resp.envelope)
	}
	return resp.Data, int(resp.Count), nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("remote %s: %w", op, ctxErr)
		}
		return &remote.Error{Kind: remote.KindTransient, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &remote.Error{Kind: remote.KindTransient, Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if kind, failed := statusKind(resp.StatusCode); failed {
		return &remote.Error{
			Kind:    kind,
			Op:      op,
			Code:    resp.StatusCode,
			Message: strings.TrimSpace(snippet(body)),
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &remote.Error{Kind: remote.KindUnknown, Op: op, Message: "decode response", Err: err}
	}
	return nil
}

func statusKind(status int) (remote.Kind, bool) {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return remote.KindAuth, true
	case status == http.StatusTooManyRequests:
		return remote.KindRateLimited, true
	case status >= http.StatusInternalServerError:
		return remote.KindTransient, true
	case status >= http.StatusMultipleChoices:
		return remote.KindUnknown, true
	default:
		return remote.KindUnknown, false
	}
}

func apiError(op string, env envelope) error {
	code := env.code()
	kind := remote.KindUnknown
	if _, ok := authErrnos[code]; ok {
		kind = remote.KindAuth
	}
	message := env.message()
	if message == "" {
		message = "request refused"
	}
	return &remote.Error{Kind: kind, Op: op, Code: code, Message: message}
}

func snippet(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}

