package storage

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/paritytech/subport/chainstate"
	"github.com/paritytech/subport/interfaces"
)

// SourceFactory creates content sources from references and manages
// mirror lists.
type SourceFactory struct {
	log     *slog.Logger
	readers map[string]chainstate.StorageReader
}

// NewSourceFactory creates a factory. readers maps chain names to storage
// readers and backs onchain:// references; it may be nil.
func NewSourceFactory(logger *slog.Logger, readers map[string]chainstate.StorageReader) *SourceFactory {
	return &SourceFactory{
		log:     logger,
		readers: readers,
	}
}

// SourceFor creates a content source for a parsed reference.
//
// Supported forms:
//   - inline - 0x-prefixed hex literal
//   - file - plain path or file:// URI
//   - http, https - download
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/key?region=&endpoint=
//   - ipfs://cid[/path]?api=host:port
//   - github://owner/repo/path?ref=
//   - vault://[token@]host:port/mount/path?field=&encoding=base64
//   - onchain://chain/para_id/{head,code}
func (sf *SourceFactory) SourceFor(loc interfaces.ContentLocation) (interfaces.ContentSource, error) {
	switch strings.ToLower(loc.Scheme) {
	case "inline":
		return NewInlineSource(loc.Raw), nil
	case "file":
		return sf.createFileSource(loc)
	case "http", "https":
		return NewHTTPSource(loc.Raw, sf.log), nil
	case "s3":
		return sf.createS3Source(loc)
	case "ipfs":
		return sf.createIPFSSource(loc)
	case "github":
		return sf.createGitHubSource(loc)
	case "vault":
		return sf.createVaultSource(loc)
	case "onchain":
		return sf.createChainSource(loc)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, loc.Scheme)
	}
}

// MultiSource creates a source that falls back across locs in order.
// Locations that cannot be turned into a source are logged and skipped.
func (sf *SourceFactory) MultiSource(locs []interfaces.ContentLocation) (interfaces.ContentSource, error) {
	sources := make([]interfaces.ContentSource, 0, len(locs))
	var lastErr error

	for _, loc := range locs {
		source, err := sf.SourceFor(loc)
		if err != nil {
			sf.log.Warn("Failed to create content source",
				"err", err,
				slog.String("location", loc.String()))
			lastErr = err
			continue
		}
		sources = append(sources, source)
	}

	if len(sources) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("no valid content sources: %w", lastErr)
		}
		return nil, fmt.Errorf("%w: no content sources given", interfaces.ErrInvalidLocationURI)
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return NewMultiSource(sources, sf.log), nil
}

// createFileSource handles plain paths, file:///absolute and file://./relative.
func (sf *SourceFactory) createFileSource(loc interfaces.ContentLocation) (interfaces.ContentSource, error) {
	path := loc.Path
	if loc.Host != "" {
		path = loc.Host + "/" + strings.TrimPrefix(path, "/")
	}
	return NewFileSource(path, sf.log)
}

// createS3Source takes credentials from the URI user info, then from
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY, and otherwise reads anonymously.
func (sf *SourceFactory) createS3Source(loc interfaces.ContentLocation) (interfaces.ContentSource, error) {
	opts := S3Options{
		Region:   loc.GetParam("region"),
		Endpoint: loc.GetParam("endpoint"),
	}

	if loc.Auth != "" {
		user, pass, _ := strings.Cut(loc.Auth, ":")
		opts.AccessKey = user
		opts.SecretKey = pass
	} else {
		opts.AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		opts.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	if opts.AccessKey == "" {
		sf.log.Debug("No S3 credentials provided, reading anonymously", slog.String("bucket", loc.Host))
	}

	return NewS3Source(loc.Host, loc.Path, opts, sf.log)
}

func (sf *SourceFactory) createIPFSSource(loc interfaces.ContentLocation) (interfaces.ContentSource, error) {
	cid := loc.Host + loc.Path
	if cid == "" {
		return nil, fmt.Errorf("%w: ipfs reference needs a cid", interfaces.ErrInvalidLocationURI)
	}
	api := loc.GetParam("api")
	if api == "" {
		api = os.Getenv("IPFS_API")
	}
	return NewIPFSSource(api, cid, sf.log), nil
}

// createGitHubSource reads GITHUB_TOKEN when set.
func (sf *SourceFactory) createGitHubSource(loc interfaces.ContentLocation) (interfaces.ContentSource, error) {
	parts := strings.SplitN(strings.TrimPrefix(loc.Path, "/"), "/", 2)
	if loc.Host == "" || len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: expected github://owner/repo/path", interfaces.ErrInvalidLocationURI)
	}
	return NewGitHubSource(loc.Host, parts[0], parts[1], loc.GetParam("ref"), os.Getenv("GITHUB_TOKEN"), sf.log), nil
}

// createVaultSource connects over https unless tls=false is given. The token
// comes from the URI user info, falling back to VAULT_TOKEN.
func (sf *SourceFactory) createVaultSource(loc interfaces.ContentLocation) (interfaces.ContentSource, error) {
	parts := strings.SplitN(strings.TrimPrefix(loc.Path, "/"), "/", 2)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: expected vault://host/mount/path", interfaces.ErrInvalidLocationURI)
	}

	scheme := "https"
	if loc.GetParam("tls") == "false" {
		scheme = "http"
	}
	opts := VaultOptions{
		Token:  strings.SplitN(loc.Auth, ":", 2)[0],
		Field:  loc.GetParam("field"),
		Base64: loc.GetParam("encoding") == "base64",
	}
	if loc.Host != "" {
		opts.Address = scheme + "://" + loc.Host
	}
	return NewVaultSource(parts[0], parts[1], opts, sf.log)
}

func (sf *SourceFactory) createChainSource(loc interfaces.ContentLocation) (interfaces.ContentSource, error) {
	reader, ok := sf.readers[strings.ToLower(loc.Host)]
	if !ok {
		return nil, fmt.Errorf("%w: no connection to chain %q", interfaces.ErrInvalidLocationURI, loc.Host)
	}

	parts := strings.Split(strings.Trim(loc.Path, "/"), "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected onchain://chain/para_id/item", interfaces.ErrInvalidLocationURI)
	}
	id, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: para id %q: %v", interfaces.ErrInvalidLocationURI, parts[0], err)
	}
	return NewChainSource(strings.ToLower(loc.Host), reader, interfaces.ParaID(id), ChainItem(parts[1]), sf.log)
}
