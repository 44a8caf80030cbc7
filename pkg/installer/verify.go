package installer

import (
	"context"
	"io"

	"formula/pkg/descriptor"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// VerifyResult is the outcome of checking one rule's artifact.
type VerifyResult struct {
	Rule     descriptor.Rule
	Artifact string
	Got      string
	Size     int64
	Err      error
}

// OK reports whether the artifact was downloaded and matched.
func (r VerifyResult) OK() bool {
	return r.Err == nil
}

// Mismatch reports whether the artifact was downloaded but hashed to a
// different checksum.
func (r VerifyResult) Mismatch() bool {
	return errors.Is(r.Err, ErrChecksumMismatch)
}

// Verify downloads the artifact of every rule of d and checks it against
// the recorded sha256. Results are returned in rule order; a failing rule
// does not stop the others.
func (i *Installer) Verify(ctx context.Context, d descriptor.Descriptor) []VerifyResult {
	results := make([]VerifyResult, len(d.Rules))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for idx, rule := range d.Rules {
		g.Go(func() error {
			results[idx] = i.verifyRule(ctx, rule)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func (i *Installer) verifyRule(ctx context.Context, rule descriptor.Rule) VerifyResult {
	res := VerifyResult{Rule: rule, Artifact: artifactName(rule.URL)}

	body, _, err := i.client.Download(ctx, rule.URL)
	if err != nil {
		res.Err = err
		return res
	}
	defer body.Close()

	digester := digest.SHA256.Digester()
	n, err := io.Copy(digester.Hash(), body)
	res.Size = n
	if err != nil {
		res.Err = errors.Wrapf(err, "failed to read %s", res.Artifact)
		return res
	}

	res.Got = digester.Digest().Encoded()
	if res.Got != rule.SHA256 {
		res.Err = errors.Wrapf(ErrChecksumMismatch, "%s: expected %s, got %s", res.Artifact, rule.SHA256, res.Got)
	}

	return res
}
