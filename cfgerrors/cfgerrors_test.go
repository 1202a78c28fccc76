package cfgerrors_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/brunoabdon/abdedge/cfgerrors"
)

var (
	errNull   = &cfgerrors.UnacceptableOriginPatternError{Value: "null", Reason: "prohibited"}
	errPSL    = &cfgerrors.IncompatibleOriginPatternError{Value: "https://*.com", Reason: "psl"}
	errMethod = &cfgerrors.UnacceptableMethodError{Value: "résumé", Reason: "invalid"}
	errMaxAge = &cfgerrors.MaxAgeOutOfBoundsError{Value: -1, Default: 1800, Max: 86_400}
)

func TestAll(t *testing.T) {
	origins := errors.Join(errNull, errPSL)
	cases := []struct {
		desc   string
		err    error
		stopAt error // the consumer stops before this element
		want   []error
	}{
		{
			desc: "lone error",
			err:  errMethod,
			want: []error{errMethod},
		}, {
			desc: "joined errors in order",
			err:  origins,
			want: []error{errNull, errPSL},
		}, {
			desc:   "consumer stops early",
			err:    origins,
			stopAt: errPSL,
			want:   []error{errNull},
		}, {
			desc: "singly joined error",
			err:  errors.Join(errMaxAge),
			want: []error{errMaxAge},
		}, {
			desc: "nested joins are flattened depth-first",
			err:  errors.Join(origins, errors.Join(errMethod), errMaxAge),
			want: []error{errNull, errPSL, errMethod, errMaxAge},
		}, {
			desc:   "consumer stops inside a nested join",
			err:    errors.Join(errors.Join(errMethod, errMaxAge), origins),
			stopAt: errMaxAge,
			want:   []error{errMethod},
		},
	}
	for _, tc := range cases {
		f := func(t *testing.T) {
			var got []error
			for err := range cfgerrors.All(tc.err) {
				if err == tc.stopAt {
					break
				}
				got = append(got, err)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("got %v; want %v", got, tc.want)
			}
		}
		t.Run(tc.desc, f)
	}
}

func TestPackageNamePrefixInErrorMessages(t *testing.T) {
	errs := []error{
		&cfgerrors.MissingOriginsError{EnvVar: "ABD_HTTP_ALLOWED_ORIGINS"},
		//
		&cfgerrors.UnacceptableOriginPatternError{Reason: "missing"},
		&cfgerrors.UnacceptableOriginPatternError{Value: "foo bar", Reason: "invalid"},
		&cfgerrors.UnacceptableOriginPatternError{Value: "null", Reason: "prohibited"},
		//
		&cfgerrors.IncompatibleOriginPatternError{Value: "https://*.com", Reason: "psl"},
		&cfgerrors.IncompatibleOriginPatternError{Reason: "unknown"},
		//
		&cfgerrors.UnacceptableMethodError{Value: "résumé", Reason: "invalid"},
		//
		&cfgerrors.UnacceptableHeaderNameError{Value: "résumé", Reason: "invalid"},
		//
		&cfgerrors.MaxAgeOutOfBoundsError{Value: -2, Default: 1800, Max: 86_400},
		//
		&cfgerrors.StatusOutOfBoundsError{Value: 300, Kind: "success", Min: 200, Max: 299},
		&cfgerrors.StatusOutOfBoundsError{Value: 200, Kind: "failure", Min: 400, Max: 599},
	}
	const wantPrefix = "cors: "
	for _, err := range errs {
		if msg := err.Error(); !strings.HasPrefix(msg, wantPrefix) {
			t.Errorf("missing package-name prefix in %q", msg)
		}
	}
}

// comparability checks
var (
	_ map[cfgerrors.MissingOriginsError]struct{}
	_ map[cfgerrors.UnacceptableOriginPatternError]struct{}
	_ map[cfgerrors.IncompatibleOriginPatternError]struct{}
	_ map[cfgerrors.UnacceptableMethodError]struct{}
	_ map[cfgerrors.UnacceptableHeaderNameError]struct{}
	_ map[cfgerrors.MaxAgeOutOfBoundsError]struct{}
	_ map[cfgerrors.StatusOutOfBoundsError]struct{}
)
