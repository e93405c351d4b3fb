package pattern

import (
	"fmt"
	"regexp"
	"testing"

	qt "github.com/frankban/quicktest"
)

var regexpTests = []struct {
	pat     string
	mode    Mode
	want    string
	wantErr bool

	mustMatch    []string
	mustNotMatch []string
}{
	{pat: ``, want: ``},
	{pat: `foo`, want: `foo`},
	{pat: `foóà中`, mode: Filenames, want: `foóà中`},
	{pat: `.`, want: `\.`},
	{pat: `foo*`, want: `(?s)foo.*`},
	{pat: `foo*`, mode: Shortest, want: `(?s)foo.*?`},
	{pat: `*foo`, mode: Filenames, want: `([^/.][^/]*)?foo`},
	{
		pat: `*foo`, mode: Filenames | EntireString, want: `^([^/.][^/]*)?foo$`,
		mustMatch:    []string{"foo", "prefix-foo", "prefix.foo"},
		mustNotMatch: []string{"foo-suffix", "/prefix/foo", ".foo", ".prefix-foo"},
	},
	{pat: `**`, want: `(?s).*.*`},
	{pat: `\*`, want: `\*`},
	{pat: `\`, wantErr: true},
	{pat: `?`, want: `(?s).`},
	{pat: `?`, mode: Filenames, want: `[^/]`},
	{pat: `\a`, want: `a`},
	{pat: `(`, want: `\(`},
	{pat: `a|b`, want: `a\|b`},
	{pat: `[abc]`, want: `[abc]`},
	{pat: `[^abc]`, want: `[^abc]`},
	{pat: `[!abc]`, want: `[^abc]`},
	{pat: `[a-c]`, want: `[a-c]`},
	{pat: `[c-a]`, wantErr: true},
	{pat: `[`, wantErr: true},
	{pat: `[]]`, want: `[]]`},
	{pat: `[[:digit:]]`, want: `[[:digit:]]`},
	{pat: `[[:bogus:]]`, wantErr: true},
	{pat: `[[.foo.]]`, wantErr: true},
}

func TestRegexp(t *testing.T) {
	c := qt.New(t)
	for _, tc := range regexpTests {
		c.Run(fmt.Sprintf("%q/%d", tc.pat, tc.mode), func(c *qt.C) {
			got, err := Regexp(tc.pat, tc.mode)
			if tc.wantErr {
				c.Assert(err, qt.Not(qt.IsNil))
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, tc.want)
			re, err := regexp.Compile(got)
			c.Assert(err, qt.IsNil)
			for _, s := range tc.mustMatch {
				c.Assert(re.MatchString(s), qt.IsTrue, qt.Commentf("%q should match %q", s, got))
			}
			for _, s := range tc.mustNotMatch {
				c.Assert(re.MatchString(s), qt.IsFalse, qt.Commentf("%q should not match %q", s, got))
			}
		})
	}
}

func TestHasMeta(t *testing.T) {
	c := qt.New(t)
	c.Assert(HasMeta(`foo`), qt.IsFalse)
	c.Assert(HasMeta(`foo\*bar`), qt.IsFalse)
	c.Assert(HasMeta(`foo*bar`), qt.IsTrue)
	c.Assert(HasMeta(`foo?bar`), qt.IsTrue)
	c.Assert(HasMeta(`foo[bar]`), qt.IsTrue)
}

func TestQuoteMeta(t *testing.T) {
	c := qt.New(t)
	c.Assert(QuoteMeta(`foo`), qt.Equals, `foo`)
	c.Assert(QuoteMeta(`foo*bar?`), qt.Equals, `foo\*bar\?`)
	c.Assert(QuoteMeta(`[abc]`), qt.Equals, `\[abc]`)
}
