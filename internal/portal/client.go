// Package portal posts rendered reports as discussions to the customer
// portal. Authentication is either Kerberos (SPNEGO against the local
// credential cache) or username/password against the SSO endpoint, and the
// client falls back across portal environments in configured order.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	krb5client "github.com/jcmturner/gokrb5/v8/client"
	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/spnego"
	"github.com/tidwall/gjson"

	"tamreport/internal/config"
	"tamreport/internal/domain"
)

// httpDoer is satisfied by *http.Client and *spnego.Client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Group struct {
	ID          string
	Name        string
	Description string
}

type PostResult struct {
	DiscussionID string
	Environment  string
	Title        string
	GroupID      string
}

type Client struct {
	cfg    config.Portal
	logger *log.Logger

	doer    httpDoer
	baseURL string // environment that authenticated
	envName string
	token   string // bearer token in basic mode

	groupCache map[string][]Group
}

func NewClient(cfg config.Portal, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		cfg:        cfg,
		logger:     logger,
		groupCache: make(map[string][]Group),
	}
}

// Connect authenticates against each configured environment in order and
// locks onto the first that accepts the credentials.
func (c *Client) Connect(ctx context.Context) error {
	if len(c.cfg.Environments) == 0 {
		return &domain.ConfigError{Reason: "no portal environments configured"}
	}
	doer, err := c.buildDoer()
	if err != nil {
		return err
	}
	var lastErr error
	for _, env := range c.cfg.Environments {
		if err := c.authenticate(ctx, doer, env); err != nil {
			c.logger.Printf("portal: environment %s rejected auth: %v", env.Name, err)
			lastErr = err
			continue
		}
		c.doer = doer
		c.baseURL = env.BaseURL
		c.envName = env.Name
		c.logger.Printf("portal: using environment %s (%s)", env.Name, env.BaseURL)
		return nil
	}
	return &domain.PostError{Reason: "authentication failed for all environments", Err: lastErr}
}

// Environment returns the base URL of the environment that accepted auth.
func (c *Client) Environment() string { return c.baseURL }

func (c *Client) buildDoer() (httpDoer, error) {
	base := &http.Client{Timeout: c.cfg.Timeout}
	if !c.cfg.UseKerberos {
		return base, nil
	}
	cl, err := kerberosClient()
	if err != nil {
		return nil, &domain.PostError{Reason: "kerberos credentials unavailable", Err: err}
	}
	return spnego.NewClient(cl, base, ""), nil
}

// kerberosClient loads the ticket cache the user already holds; the tool
// never runs kinit itself.
func kerberosClient() (*krb5client.Client, error) {
	ccPath := os.Getenv("KRB5CCNAME")
	ccPath = strings.TrimPrefix(ccPath, "FILE:")
	if ccPath == "" {
		ccPath = fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
	}
	cc, err := credentials.LoadCCache(ccPath)
	if err != nil {
		return nil, fmt.Errorf("loading ccache %s: %w", ccPath, err)
	}
	krbConf, err := krb5config.Load("/etc/krb5.conf")
	if err != nil {
		return nil, fmt.Errorf("loading krb5.conf: %w", err)
	}
	return krb5client.NewFromCCache(cc, krbConf, krb5client.DisablePAFXFAST(true))
}

// authenticate proves the environment accepts our credentials. In basic
// mode it first exchanges username/password for a bearer token.
func (c *Client) authenticate(ctx context.Context, doer httpDoer, env config.Environment) error {
	if !c.cfg.UseKerberos {
		if err := c.login(ctx, doer, env); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.BaseURL+"/user/profile", nil)
	if err != nil {
		return err
	}
	c.setAuth(req)
	resp, err := doer.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.PostError{Environment: env.Name, StatusCode: resp.StatusCode, Reason: "profile check failed"}
	}
	return nil
}

func (c *Client) login(ctx context.Context, doer httpDoer, env config.Environment) error {
	if c.cfg.Username == "" || c.cfg.Password == "" {
		return &domain.ConfigError{Reason: "portal username/password not configured"}
	}
	ssoURL := c.cfg.SSOURL
	if ssoURL == "" {
		ssoURL = env.BaseURL
	}
	body, _ := json.Marshal(map[string]string{
		"username":   c.cfg.Username,
		"password":   c.cfg.Password,
		"grant_type": "password",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ssoURL+c.cfg.AuthPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := doer.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.PostError{Environment: env.Name, StatusCode: resp.StatusCode, Reason: "login rejected"}
	}
	token := gjson.GetBytes(data, "access_token").String()
	if token == "" {
		token = gjson.GetBytes(data, "token").String()
	}
	if token == "" {
		return &domain.PostError{Environment: env.Name, Reason: "login response carried no token"}
	}
	c.token = token
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Groups lists the portal groups visible for a customer. The lookup is by
// account number, falling back to the slug for customers without one.
// Results are cached per account for the lifetime of the client.
func (c *Client) Groups(ctx context.Context, customer domain.Customer) ([]Group, error) {
	account := customer.AccountNumber
	if account == "" {
		account = customer.Key
	}
	if cached, ok := c.groupCache[account]; ok {
		return cached, nil
	}
	if c.doer == nil {
		return nil, &domain.PostError{Reason: "not connected"}
	}
	url := c.baseURL + fmt.Sprintf(c.cfg.GroupsPath, account)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setAuth(req)
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, &domain.PostError{Environment: c.envName, Reason: "listing groups", Err: err}
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.PostError{Environment: c.envName, StatusCode: resp.StatusCode, Reason: "listing groups"}
	}
	var groups []Group
	root := gjson.ParseBytes(data)
	list := root
	if !root.IsArray() {
		list = root.Get("groups")
		if !list.Exists() {
			list = root.Get("data")
		}
	}
	list.ForEach(func(_, g gjson.Result) bool {
		id := g.Get("id")
		if !id.Exists() {
			id = g.Get("nid")
		}
		groups = append(groups, Group{
			ID:          id.String(),
			Name:        g.Get("name").String(),
			Description: g.Get("description").String(),
		})
		return true
	})
	c.groupCache[account] = groups
	return groups, nil
}

// Post publishes a discussion to the customer's portal group. An
// unconfirmed group id is allowed but logged so the operator can verify it.
func (c *Client) Post(ctx context.Context, customer domain.Customer, r *domain.Report) (*PostResult, error) {
	if c.doer == nil {
		return nil, &domain.PostError{Reason: "not connected"}
	}
	if customer.PortalGroupID == "" {
		return nil, &domain.ConfigError{Reason: "customer " + customer.Key + " has no portal group id"}
	}
	if customer.GroupIDConfidence != domain.ConfidenceConfirmed {
		c.logger.Printf("portal: group id %s for %s is %s, verify before relying on it",
			customer.PortalGroupID, customer.Key, customer.GroupIDConfidence)
	}

	payload, _ := json.Marshal(map[string]any{
		"title":        r.Title,
		"content":      r.MarkdownBody,
		"content_type": "markdown",
		"timestamp":    r.GeneratedAt.Format(time.RFC3339),
		"author":       c.cfg.Username,
		"source":       "TAM-Automation",
	})
	url := c.baseURL + fmt.Sprintf(c.cfg.PostPath, customer.PortalGroupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, &domain.PostError{Environment: c.envName, Reason: "posting discussion", Err: err}
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.PostError{Environment: c.envName, StatusCode: resp.StatusCode, Reason: "posting discussion"}
	}
	id := gjson.GetBytes(data, "id")
	if !id.Exists() {
		id = gjson.GetBytes(data, "nid")
	}
	return &PostResult{
		DiscussionID: id.String(),
		Environment:  c.baseURL,
		Title:        r.Title,
		GroupID:      customer.PortalGroupID,
	}, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
