package rationale

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"govtwool/internal/domain"
)

func voteFields() Fields {
	return Fields{
		Summary:            "We support this withdrawal.",
		RationaleStatement: "The budget is aligned with the roadmap.",
		References: []domain.Reference{
			{Type: "RelevantArticles", Label: "Article IV", URI: "https://constitution.example/iv"},
			{Type: "something-else", Label: "Forum", URI: "https://forum.example/t/1"},
			{Type: "Other", Label: "", URI: "https://no-label.example"},
		},
	}
}

func TestBuildCIP136_OmitsEmptyOptionalSections(t *testing.T) {
	doc, err := Build(CIP136, voteFields())
	require.NoError(t, err)

	v := doc.Value()
	body := v.Get("body")
	assert.Equal(t, "We support this withdrawal.", body.Get("summary").Str())
	assert.False(t, body.Get("precedentDiscussion").Defined())
	assert.False(t, body.Get("counterargumentDiscussion").Defined())
	assert.False(t, body.Get("conclusion").Defined())
	assert.Equal(t, HashAlgorithm, v.Get("hashAlgorithm").Str())

	authors, ok := v.Get("authors").AsArray()
	require.True(t, ok)
	assert.Empty(t, authors)

	assert.Equal(t, "CIP136:summary", v.Path("@context", "body", "@context", "summary").Str())
}

func TestBuild_NormalizesReferences(t *testing.T) {
	doc, err := Build(CIP136, voteFields())
	require.NoError(t, err)

	refs, ok := doc.Value().Path("body", "references").AsArray()
	require.True(t, ok)
	require.Len(t, refs, 2)
	assert.Equal(t, "RelevantArticles", refs[0].Get("@type").Str())
	assert.Equal(t, "Other", refs[1].Get("@type").Str())
	assert.Equal(t, "Forum", refs[1].Get("label").Str())
}

func TestBuild_RequiredFields(t *testing.T) {
	f := voteFields()
	f.Summary = "   "
	_, err := Build(CIP136, f)
	require.ErrorIs(t, err, ErrMissingField)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "summary", ve.Field)

	_, err = Build(CIP108, Fields{Title: "T", Abstract: "A", Motivation: "M"})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "rationale", ve.Field)
}

func TestBuild_LimitsCountCharacters(t *testing.T) {
	f := voteFields()
	f.Summary = strings.Repeat("é", 300)
	_, err := Build(CIP136, f)
	require.NoError(t, err, "300 multibyte characters fit the limit")

	f.Summary = strings.Repeat("é", 301)
	_, err = Build(CIP136, f)
	require.ErrorIs(t, err, ErrFieldTooLong)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, 300, ve.Limit)
	assert.Equal(t, 301, ve.Actual)

	_, err = Build(CIP108, Fields{Title: strings.Repeat("x", 81), Abstract: "a", Motivation: "m", Rationale: "r"})
	require.ErrorIs(t, err, ErrFieldTooLong)
}

func TestBuild_DoesNotMixStandards(t *testing.T) {
	f := voteFields()
	f.Title = "should not leak"
	f.Abstract = "nor this"
	doc, err := Build(CIP136, f)
	require.NoError(t, err)
	body := doc.Value().Get("body")
	assert.False(t, body.Get("title").Defined())
	assert.False(t, body.Get("abstract").Defined())

	doc, err = Build(CIP108, Fields{
		Title: "Title", Abstract: "Abstract", Motivation: "Motivation", Rationale: "Rationale",
		Summary: "not here",
	})
	require.NoError(t, err)
	body = doc.Value().Get("body")
	assert.Equal(t, "Title", body.Get("title").Str())
	assert.False(t, body.Get("summary").Defined())
	assert.False(t, body.Get("references").Defined())
	assert.Equal(t, "CIP108:title", doc.Value().Path("@context", "body", "@context", "title").Str())
}

func TestBuild_UnknownStandard(t *testing.T) {
	_, err := Build(Standard("cip999"), voteFields())
	require.ErrorIs(t, err, ErrUnknownStandard)
}

func TestParseStandard(t *testing.T) {
	for in, want := range map[string]Standard{
		"cip136": CIP136, "CIP-136": CIP136, "CIP-0136": CIP136, "136": CIP136,
		"cip108": CIP108, " CIP-108 ": CIP108,
	} {
		got, err := ParseStandard(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStandard("cip100")
	assert.Error(t, err)
}

func TestDocument_IsImmutableAndDeterministic(t *testing.T) {
	a, err := Build(CIP136, voteFields())
	require.NoError(t, err)
	b, err := Build(CIP136, voteFields())
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())

	raw := a.Bytes()
	raw[0] = 'X'
	assert.NotEqual(t, raw, a.Bytes())

	obj, ok := a.Value().AsObject()
	require.True(t, ok)
	obj.Delete("body")
	assert.True(t, a.Value().Get("body").Defined())

	marshalled, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), marshalled)

	pretty, err := a.Indent()
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  \"hashAlgorithm\"")
}

func TestComputeAnchor_KnownVectors(t *testing.T) {
	anchor, err := ComputeAnchor(&Document{raw: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, "324dcf027dd4a30a932c441f365a25e86b173defa4b8e58948253471b81b72cf", anchor.DataHash)
	assert.Equal(t, "bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq", anchor.CID)
	assert.Equal(t, 5, anchor.Size)

	empty, err := ComputeAnchor(&Document{raw: []byte{}})
	require.NoError(t, err)
	assert.Equal(t, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", empty.DataHash)
}

func TestDisabledSink(t *testing.T) {
	doc, err := Build(CIP136, voteFields())
	require.NoError(t, err)
	_, err = NewDisabledSink("no sink configured").Publish(context.Background(), doc, "ipfs")
	require.ErrorIs(t, err, ErrSinkDisabled)
	assert.Contains(t, err.Error(), "no sink configured")
}

func TestHTTPSink_Publish(t *testing.T) {
	doc, err := Build(CIP136, voteFields())
	require.NoError(t, err)

	var gotBody []byte
	var gotAuth, gotProvider, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAuth = r.Header.Get("Authorization")
		gotProvider = r.Header.Get("X-Storage-Provider")
		gotType = r.Header.Get("Content-Type")
		_, _ = io.WriteString(w, `{"cid":"bafkreiexample"}`)
	}))
	defer srv.Close()

	sink, err := NewHTTPSink(srv.URL, "tok", time.Second, zap.NewNop())
	require.NoError(t, err)
	pub, err := sink.Publish(context.Background(), doc, "pinata")
	require.NoError(t, err)

	assert.Equal(t, doc.Bytes(), gotBody)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "pinata", gotProvider)
	assert.Equal(t, "application/ld+json", gotType)
	assert.Equal(t, "ipfs://bafkreiexample", pub.URL)

	want, err := ComputeAnchor(doc)
	require.NoError(t, err)
	assert.Equal(t, want, pub.Anchor)
}

func TestHTTPSink_Errors(t *testing.T) {
	doc, err := Build(CIP136, voteFields())
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			_, _ = io.WriteString(w, `{}`)
			return
		}
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	sink, err := NewHTTPSink(srv.URL+"/fail", "", time.Second, nil)
	require.NoError(t, err)
	_, err = sink.Publish(context.Background(), doc, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")

	sink, err = NewHTTPSink(srv.URL+"/empty", "", time.Second, nil)
	require.NoError(t, err)
	_, err = sink.Publish(context.Background(), doc, "")
	assert.Error(t, err)

	_, err = NewHTTPSink(" ", "", 0, nil)
	assert.Error(t, err)
}
