package labordash

import (
	"context"
	"errors"
)

// HTTPFetcher loads a dataset from a CSV endpoint or a JSON tabular API.
type HTTPFetcher struct {
	BaseFetcher
	client *Client
	url    string
	format Format
}

func NewHTTPFetcher(client *Client, src Source) *HTTPFetcher {
	return &HTTPFetcher{
		BaseFetcher: NewBaseFetcher(src.Name, src.Priority),
		client:      client,
		url:         src.Location,
		format:      src.Format,
	}
}

func (f *HTTPFetcher) URL() string { return f.url }

func (f *HTTPFetcher) Fetch(ctx context.Context, desc *Descriptor) (*RawTable, error) {
	body, err := f.client.Get(ctx, f.url)
	if err != nil {
		var httpErr *HTTPError
		switch {
		case errors.Is(err, ErrBodyTooLarge):
			return nil, NewUnavailableError(desc.Name, f.Name(), "response too large", err)
		case errors.As(err, &httpErr):
			return nil, NewUnavailableError(desc.Name, f.Name(), httpErr.Status, err)
		case isTimeout(err):
			return nil, NewUnavailableError(desc.Name, f.Name(), "timeout", errors.Join(ErrTimeout, err))
		default:
			return nil, NewUnavailableError(desc.Name, f.Name(), "unreachable", err)
		}
	}

	raw, err := Decode(f.format, body)
	if err != nil {
		return nil, NewUnavailableError(desc.Name, f.Name(), "malformed response", err)
	}
	return raw, nil
}
