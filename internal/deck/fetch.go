package deck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Fetch materializes a deck reference as a local file. Supported refs:
//
//   - s3://bucket/key (AWS SDK v2, default credential chain)
//   - http:// and https:// URLs
//   - file://path and plain filesystem paths
//
// The returned cleanup removes any temp file Fetch created; it is non-nil
// whenever err is nil.
func Fetch(ctx context.Context, ref string) (string, func(), error) {
	// strip an optional #page fragment
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}

	switch {
	case strings.HasPrefix(ref, "s3://"):
		p, err := fetchS3(ctx, ref)
		if err != nil {
			return "", nil, err
		}
		return p, func() { os.Remove(p) }, nil
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		p, err := fetchHTTP(ctx, ref)
		if err != nil {
			return "", nil, err
		}
		return p, func() { os.Remove(p) }, nil
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://"), func() {}, nil
	default:
		return ref, func() {}, nil
	}
}

func fetchHTTP(ctx context.Context, url string) (string, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("http %d fetching deck", resp.StatusCode)
	}
	f, err := os.CreateTemp("", "deckdl-*")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func fetchS3(ctx context.Context, s3url string) (string, error) {
	// s3://bucket/key
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 {
		return "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	bucket := path[:slash]
	key := path[slash+1:]

	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	dl := manager.NewDownloader(s3.NewFromConfig(cfg))

	f, err := os.CreateTemp("", "decks3-*")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := dl.Download(ctx, f, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	log.Info().Str("bucket", bucket).Str("key", key).Msg("downloaded deck from s3")
	return f.Name(), nil
}
