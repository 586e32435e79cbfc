package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

var ErrPostNotFound = errors.New("post not found")

// StatusError reports a non-2xx answer from the blog API.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// APIClient talks to the remote blog API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type loginResponse struct {
	Access string `json:"access"`
}

// Login exchanges credentials for an access token.
func (c *APIClient) Login(ctx context.Context, creds Credentials) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/jwt/create/", "", creds)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", &StatusError{Op: "login", StatusCode: resp.StatusCode}
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	if body.Access == "" {
		return "", errors.New("login: response carried no access token")
	}
	return body.Access, nil
}

// Register creates a user. The response body is ignored.
func (c *APIClient) Register(ctx context.Context, creds Credentials) error {
	resp, err := c.do(ctx, http.MethodPost, "/register/", "", creds)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	defer drain(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return &StatusError{Op: "register", StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *APIClient) Posts(ctx context.Context) ([]Post, error) {
	resp, err := c.do(ctx, http.MethodGet, "/get-blogs/", "", nil)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, &StatusError{Op: "listing posts", StatusCode: resp.StatusCode}
	}

	var posts []Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("decoding posts: %w", err)
	}
	return posts, nil
}

func (c *APIClient) Post(ctx context.Context, id int) (*Post, error) {
	resp, err := c.do(ctx, http.MethodGet, "/get-blogs/"+strconv.Itoa(id), "", nil)
	if err != nil {
		return nil, fmt.Errorf("getting post %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPostNotFound
	}
	if !isSuccess(resp.StatusCode) {
		return nil, &StatusError{Op: "getting post", StatusCode: resp.StatusCode}
	}

	var post Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return nil, fmt.Errorf("decoding post %d: %w", id, err)
	}
	return &post, nil
}

func (c *APIClient) DeletePost(ctx context.Context, token string, id int) error {
	resp, err := c.do(ctx, http.MethodDelete, "/delete-blog/"+strconv.Itoa(id)+"/", token, nil)
	if err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return ErrPostNotFound
	}
	if !isSuccess(resp.StatusCode) {
		return &StatusError{Op: "deleting post", StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *APIClient) do(ctx context.Context, method, path, token string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "JWT "+token)
	}

	return c.client.Do(req)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func drain(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
