package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/vessel-net/vessel"
)

const (
	defaultTimeout = 3 * time.Second
)

// Node is a resolved remote peer: its attested address, canonical URL,
// and the well-known document it served.
type Node struct {
	Address   string                 `json:"address"`
	URL       string                 `json:"url"`
	WellKnown vessel.WellKnownVessel `json:"wellKnown"`
}

type Client struct {
	client          *http.Client
	cache           *cache.Cache
	userAgent       string
	defaultResolver string
}

// New builds a federation client. defaultResolver is the host consulted
// when a lookup carries no hint.
func New(defaultResolver string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:          &httpClient,
		cache:           cache.New(10*time.Minute, 15*time.Minute),
		userAgent:       "vessel-client",
		defaultResolver: defaultResolver,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) httpJSON(ctx context.Context, method, url string, body any, response any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if response != nil {
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			return fmt.Errorf("failed to decode response: %v", err)
		}
	}
	return nil
}

// GetWellKnown fetches and caches a host's node descriptor.
func (c *Client) GetWellKnown(ctx context.Context, host string) (vessel.WellKnownVessel, error) {
	cacheKey := "wellknown:" + host
	if x, found := c.cache.Get(cacheKey); found {
		return x.(vessel.WellKnownVessel), nil
	}

	var wkv vessel.WellKnownVessel
	err := c.httpJSON(ctx, "GET", "https://"+host+"/.well-known/vessel", nil, &wkv)
	if err != nil {
		return vessel.WellKnownVessel{}, fmt.Errorf("failed to get well-known vessel for %s: %v", host, err)
	}

	c.cache.Set(cacheKey, wkv, cache.DefaultExpiration)
	return wkv, nil
}

// GetNode resolves an account address to its node. The hint, when
// present, names the host to ask; otherwise the default resolver is
// consulted. The served descriptor must attest the requested address.
func (c *Client) GetNode(ctx context.Context, address string, hint string) (Node, error) {
	cacheKey := "node:" + vessel.NormalizeAddress(address)
	if x, found := c.cache.Get(cacheKey); found {
		return x.(Node), nil
	}

	host := hint
	if host == "" {
		host = c.defaultResolver
	}
	if host == "" {
		return Node{}, fmt.Errorf("no resolver available for address %s", address)
	}

	wkv, err := c.GetWellKnown(ctx, host)
	if err != nil {
		return Node{}, err
	}

	if !vessel.AddressesEqual(wkv.Address, address) {
		return Node{}, fmt.Errorf("host %s does not serve address %s", host, address)
	}

	node := Node{
		Address:   wkv.Address,
		URL:       wkv.URL,
		WellKnown: wkv,
	}
	c.cache.Set(cacheKey, node, cache.DefaultExpiration)
	return node, nil
}

// PublicationView is the wire shape of a publication served by a peer.
type PublicationView struct {
	ID          int64    `json:"id"`
	ContentHash string   `json:"contentHash"`
	Author      string   `json:"author"`
	Tags        []string `json:"tags,omitempty"`
	Signature   string   `json:"signature,omitempty"`
	Content     struct {
		Type string `json:"type"`
		Body string `json:"body,omitempty"`
	} `json:"content"`
	CDate time.Time `json:"cdate"`
}

// GetResource resolves a content-hash permalink against a host.
func (c *Client) GetResource(ctx context.Context, host, contentHash string) (PublicationView, error) {
	if !vessel.IsContentHash(contentHash) {
		return PublicationView{}, fmt.Errorf("malformed content hash: %s", contentHash)
	}

	var pub PublicationView
	err := c.httpJSON(ctx, "GET", "https://"+host+"/resource/"+contentHash, nil, &pub)
	if err != nil {
		return PublicationView{}, err
	}
	return pub, nil
}

// CommentView is the wire shape of a comment served by a peer.
type CommentView struct {
	ID            int64     `json:"id"`
	PublicationID int64     `json:"publicationId"`
	Body          string    `json:"body"`
	Status        string    `json:"status"`
	AuthType      string    `json:"authType"`
	AuthorName    string    `json:"authorName"`
	AuthorID      string    `json:"authorId"`
	CDate         time.Time `json:"cdate"`
}

// CommentPage is a publication's confirmed comments with their count.
type CommentPage struct {
	Comments []CommentView `json:"comments"`
	Count    int64         `json:"count"`
}

func (c *Client) GetComments(ctx context.Context, host string, publicationID int64) (CommentPage, error) {
	var page CommentPage
	url := fmt.Sprintf("https://%s/api/v1/publications/%d/comments", host, publicationID)
	if err := c.httpJSON(ctx, "GET", url, nil, &page); err != nil {
		return CommentPage{}, err
	}
	return page, nil
}

// CommentSubmission is the request shape for submitting a comment to a
// peer on either channel.
type CommentSubmission struct {
	Body       string `json:"body"`
	AuthorName string `json:"authorName"`
	AuthorID   string `json:"authorId"`
	AuthType   string `json:"authType"`
	Signature  string `json:"signature,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

func (c *Client) SubmitComment(ctx context.Context, host string, publicationID int64, submission CommentSubmission) (CommentView, error) {
	var created CommentView
	url := fmt.Sprintf("https://%s/api/v1/publications/%d/comments", host, publicationID)
	if err := c.httpJSON(ctx, "POST", url, submission, &created); err != nil {
		return CommentView{}, err
	}
	return created, nil
}
