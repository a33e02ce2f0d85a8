package gerrit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"

	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/structures"
)

// xssiPrefix is prepended by Gerrit to every JSON response.
var xssiPrefix = []byte(")]}'")

// Client queries the Gerrit changes endpoint for one status at a time.
type Client struct {
	base   string
	prefix string
	suffix string
	http   *http.Client
	logger providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) (*Client, error) {
	if conf.Gerrit.UrlBase == "" {
		return nil, errors.Mark(errors.New("gerrit.urlBase is not set"), models.ErrConfiguration)
	}
	timeout := conf.Gerrit.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:   conf.Gerrit.UrlBase,
		prefix: conf.Gerrit.UrlPrefix,
		suffix: conf.Gerrit.UrlSuffix,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// URL builds the query for category with a record count hint.
func (c *Client) URL(category string, count int) string {
	return c.base + c.prefix + category + c.suffix + "&n=" + strconv.Itoa(count)
}

func (c *Client) Fetch(ctx context.Context, category string, count int) ([]models.ChangeRecord, error) {
	url := c.URL(category, count)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.MarkFetch(err, "build request for %s", category)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debugf(providers.TypeCycle, "GET %s", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, models.MarkFetch(err, "fetch %s", category)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.MarkFetch(err, "read %s response", category)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Mark(errors.Newf("fetch %s: unexpected status %d", category, resp.StatusCode), models.ErrFetch)
	}

	records := make([]models.ChangeRecord, 0)
	if err := json.Unmarshal(stripXSSI(body), &records); err != nil {
		return nil, models.MarkFetch(err, "decode %s response", category)
	}
	if err := models.CheckIDs(records); err != nil {
		return nil, models.MarkFetch(err, "validate %s response", category)
	}
	c.logger.Debugf(providers.TypeCycle, "fetched %d %s records", len(records), category)
	return records, nil
}

// stripXSSI drops the first line when it is the XSSI guard.
func stripXSSI(body []byte) []byte {
	line, rest, found := bytes.Cut(body, []byte("\n"))
	if bytes.Equal(bytes.TrimRight(line, "\r"), xssiPrefix) {
		if !found {
			return nil
		}
		return rest
	}
	return body
}
