// FILE: lixenwraith/tagconf/converter_test.go
package tagconf

import (
	"errors"
	"net"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type logLevel int

type endpoint struct {
	host string
	port string
}

func (e *endpoint) UnmarshalText(text []byte) error {
	host, port, err := net.SplitHostPort(string(text))
	if err != nil {
		return err
	}
	e.host, e.port = host, port
	return nil
}

type unsupported struct{ A int }

func TestConverterBasics(t *testing.T) {
	reg := NewConverterRegistry()

	tests := []struct {
		name string
		raw  string
		typ  reflect.Type
		want any
	}{
		{"String", "0051", reflect.TypeFor[string](), "0051"},
		{"Bytes", "abc", reflect.TypeFor[[]byte](), []byte("abc")},
		{"BoolLower", "true", reflect.TypeFor[bool](), true},
		{"BoolMixedCase", "FaLsE", reflect.TypeFor[bool](), false},
		{"Int", "-42", reflect.TypeFor[int](), -42},
		{"IntLeadingZeros", "0051", reflect.TypeFor[int](), 51},
		{"Int8", "127", reflect.TypeFor[int8](), int8(127)},
		{"Int32Min", "-2147483648", reflect.TypeFor[int32](), int32(-2147483648)},
		{"Uint16", "65535", reflect.TypeFor[uint16](), uint16(65535)},
		{"Float32", "1.5", reflect.TypeFor[float32](), float32(1.5)},
		{"Float64", "2.25", reflect.TypeFor[float64](), 2.25},
		{"Duration", "1m30s", reflect.TypeFor[time.Duration](), 90 * time.Second},
		{"Time", "2024-01-02T03:04:05Z", reflect.TypeFor[time.Time](), time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"IP", "10.0.0.1", reflect.TypeFor[net.IP](), net.ParseIP("10.0.0.1")},
		{"Language", "en-US", reflect.TypeFor[language.Tag](), language.MustParse("en-US")},
		{"NamedInt", "3", reflect.TypeFor[logLevel](), logLevel(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Convert(Primitive(tt.raw), tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConverterNetwork(t *testing.T) {
	reg := NewConverterRegistry()

	t.Run("CIDR", func(t *testing.T) {
		got, err := convertTo[net.IPNet](reg, Primitive("192.168.0.0/16"))
		require.NoError(t, err)
		assert.Equal(t, "192.168.0.0/16", got.String())
	})

	t.Run("URL", func(t *testing.T) {
		got, err := convertTo[url.URL](reg, Primitive("https://example.com:8443/path"))
		require.NoError(t, err)
		assert.Equal(t, "example.com:8443", got.Host)
		assert.Equal(t, "/path", got.Path)
	})

	t.Run("InvalidIP", func(t *testing.T) {
		_, err := convertTo[net.IP](reg, Primitive("300.1.1.1"))
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("IPTooLong", func(t *testing.T) {
		_, err := convertTo[net.IP](reg, Primitive(strings.Repeat("1", maxIPLength+1)))
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("URLTooLong", func(t *testing.T) {
		_, err := convertTo[url.URL](reg, Primitive("http://x/"+strings.Repeat("a", maxURLLength)))
		assert.ErrorIs(t, err, ErrConversion)
	})
}

func TestConverterFailures(t *testing.T) {
	reg := NewConverterRegistry()

	t.Run("IntOverflow", func(t *testing.T) {
		_, err := convertTo[int8](reg, Primitive("128"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConversion)

		var convErr *ConversionError
		require.True(t, errors.As(err, &convErr))
		assert.Equal(t, "128", convErr.Value)
		assert.Equal(t, reflect.TypeFor[int8](), convErr.Type)
	})

	t.Run("NoHexOrOctal", func(t *testing.T) {
		_, err := convertTo[int](reg, Primitive("0x10"))
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("StrictBool", func(t *testing.T) {
		for _, raw := range []string{"1", "yes", "on", ""} {
			_, err := convertTo[bool](reg, Primitive(raw))
			assert.ErrorIs(t, err, ErrConversion, raw)
		}
	})

	t.Run("NoConverter", func(t *testing.T) {
		_, err := reg.Convert(Primitive("x"), reflect.TypeFor[unsupported]())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoConverter)
		assert.False(t, reg.Has(reflect.TypeFor[unsupported]()))
	})

	t.Run("ListFromScalar", func(t *testing.T) {
		_, err := convertTo[[]int](reg, Primitive("1,2"))
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("BadElement", func(t *testing.T) {
		_, err := convertTo[[]int](reg, ParseValue(`["1", "two"]`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConversion)
		assert.Contains(t, err.Error(), "element 1")
	})
}

func TestConverterComposite(t *testing.T) {
	reg := NewConverterRegistry()

	t.Run("List", func(t *testing.T) {
		got, err := convertTo[[]int](reg, ParseValue(`[1, 2, 3]`))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, got)
	})

	t.Run("Map", func(t *testing.T) {
		got, err := convertTo[map[string]time.Duration](reg, ParseValue(`{"read": "1s", "write": "2s"}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]time.Duration{"read": time.Second, "write": 2 * time.Second}, got)
	})

	t.Run("NestedList", func(t *testing.T) {
		got, err := convertTo[[][]string](reg, ParseValue(`[["a"], ["b", "c"]]`))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, got)
	})

	t.Run("Pointer", func(t *testing.T) {
		got, err := convertTo[*int](reg, Primitive("7"))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 7, *got)
	})

	t.Run("TextUnmarshaler", func(t *testing.T) {
		got, err := convertTo[endpoint](reg, Primitive("db:5432"))
		require.NoError(t, err)
		assert.Equal(t, endpoint{host: "db", port: "5432"}, got)
		assert.True(t, reg.Has(reflect.TypeFor[endpoint]()))
	})

	t.Run("Has", func(t *testing.T) {
		assert.True(t, reg.Has(reflect.TypeFor[[]string]()))
		assert.True(t, reg.Has(reflect.TypeFor[map[string]int]()))
		assert.True(t, reg.Has(reflect.TypeFor[*time.Duration]()))
		assert.True(t, reg.Has(reflect.TypeFor[logLevel]()))
		assert.False(t, reg.Has(reflect.TypeFor[map[string]unsupported]()))
		assert.False(t, reg.Has(nil))
	})
}

func TestConverterRegistration(t *testing.T) {
	t.Run("CustomType", func(t *testing.T) {
		reg := NewConverterRegistry()
		RegisterConverter(reg, func(raw string) (unsupported, error) {
			return unsupported{A: len(raw)}, nil
		})

		got, err := convertTo[unsupported](reg, Primitive("abcd"))
		require.NoError(t, err)
		assert.Equal(t, unsupported{A: 4}, got)

		list, err := convertTo[[]unsupported](reg, ParseValue(`["a", "bb"]`))
		require.NoError(t, err)
		assert.Equal(t, []unsupported{{A: 1}, {A: 2}}, list)
	})

	t.Run("ReplacesBuiltin", func(t *testing.T) {
		reg := NewConverterRegistry()
		RegisterConverter(reg, func(raw string) (bool, error) {
			return raw == "yes" || raw == "true", nil
		})

		got, err := convertTo[bool](reg, Primitive("yes"))
		require.NoError(t, err)
		assert.True(t, got)
	})

	t.Run("RegistriesAreIndependent", func(t *testing.T) {
		a, b := NewConverterRegistry(), NewConverterRegistry()
		RegisterConverter(a, func(raw string) (unsupported, error) { return unsupported{}, nil })

		assert.True(t, a.Has(reflect.TypeFor[unsupported]()))
		assert.False(t, b.Has(reflect.TypeFor[unsupported]()))
	})

	t.Run("ConverterErrorWrapped", func(t *testing.T) {
		reg := NewConverterRegistry()
		boom := errors.New("boom")
		RegisterConverter(reg, func(raw string) (unsupported, error) { return unsupported{}, boom })

		_, err := convertTo[unsupported](reg, Primitive("x"))
		assert.ErrorIs(t, err, ErrConversion)
		assert.ErrorIs(t, err, boom)
	})
}

func TestConverterResultType(t *testing.T) {
	reg := NewConverterRegistry()
	reg.Register(reflect.TypeFor[int](), func(raw string) (any, error) {
		return int64(1), nil
	})

	t.Run("Scalar", func(t *testing.T) {
		var err error
		require.NotPanics(t, func() {
			_, err = convertTo[int](reg, Primitive("1"))
		})
		assert.ErrorIs(t, err, ErrConversion)

		var convErr *ConversionError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, reflect.TypeFor[int](), convErr.Type)
	})

	t.Run("SliceElement", func(t *testing.T) {
		var err error
		require.NotPanics(t, func() {
			_, err = convertTo[[]int](reg, ParseValue(`[1, 2]`))
		})
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("MapValue", func(t *testing.T) {
		var err error
		require.NotPanics(t, func() {
			_, err = convertTo[map[string]int](reg, ParseValue(`{"a": 1}`))
		})
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("NamedKind", func(t *testing.T) {
		var err error
		require.NotPanics(t, func() {
			_, err = convertTo[logLevel](reg, Primitive("1"))
		})
		assert.ErrorIs(t, err, ErrConversion)

		var convErr *ConversionError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, reflect.TypeFor[logLevel](), convErr.Type)
	})

	t.Run("ThroughConfiguration", func(t *testing.T) {
		cfg, err := NewBuilder().
			WithStore(NewMapStore().Set("port", "8080")).
			WithRegistry(reg).
			Build()
		require.NoError(t, err)

		require.NotPanics(t, func() {
			_, err = cfg.EvaluateToInt("port")
		})
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("InterfaceResult", func(t *testing.T) {
		reg := NewConverterRegistry()
		reg.Register(reflect.TypeFor[error](), func(raw string) (any, error) {
			return errors.New(raw), nil
		})

		got, err := convertTo[error](reg, Primitive("closed"))
		require.NoError(t, err)
		assert.EqualError(t, got, "closed")
	})
}
