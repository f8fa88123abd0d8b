// FILE: lixenwraith/tagconf/builder_test.go
package tagconf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuilder(t *testing.T) {
	t.Run("TagsFromEnvironment", func(t *testing.T) {
		t.Setenv(TagsEnvVar, "prod, eu")
		cfg, err := NewBuilder().Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"prod", "eu"}, cfg.CurrentTags())
	})

	t.Run("ExplicitTagsWin", func(t *testing.T) {
		t.Setenv(TagsEnvVar, "prod")
		cfg, err := NewBuilder().WithTags("dev").Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"dev"}, cfg.CurrentTags())
	})

	t.Run("TagResolver", func(t *testing.T) {
		cfg, err := NewBuilder().WithTagResolver(StaticTagResolver{"a", "b"}).Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, cfg.CurrentTags())
	})

	t.Run("InvalidTags", func(t *testing.T) {
		_, err := NewBuilder().WithTags("a,b").Build()
		assert.ErrorIs(t, err, ErrIllegalArgument)

		_, err = NewBuilder().WithTagResolver(StaticTagResolver{TagAll}).Build()
		assert.ErrorIs(t, err, ErrIllegalArgument)
	})

	t.Run("StoreErrorsJoined", func(t *testing.T) {
		failing := StoreFunc(func(context.Context) ([]PropertySet, error) { return nil, errors.New("down") })
		_, err := NewBuilder().WithTags().WithStore(failing, NewMapStore(), failing).Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store 0")
		assert.Contains(t, err.Error(), "store 2")
	})

	t.Run("MalformedKeysSkipped", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		cfg, err := NewBuilder().WithTags().
			WithLogger(zap.New(core)).
			WithStore(NewMapStore().Set("ok", "1").Set("bad..key", "2")).
			Build()
		require.NoError(t, err)
		assert.True(t, cfg.HasValue("ok"))
		assert.Equal(t, 1, logs.FilterMessage("skipped malformed keys").Len())
	})

	t.Run("SharedRegistry", func(t *testing.T) {
		reg := NewConverterRegistry()
		cfg, err := NewBuilder().WithTags().WithRegistry(reg).Build()
		require.NoError(t, err)
		assert.Same(t, reg, cfg.Registry())
	})

	t.Run("Validators", func(t *testing.T) {
		var order []int
		_, err := NewBuilder().WithTags().
			WithStore(NewMapStore().Set("k", "v")).
			WithValidator(func(c *Configuration) error { order = append(order, 1); return nil }).
			WithValidator(func(c *Configuration) error {
				order = append(order, 2)
				if !c.HasValue("required") {
					return errors.New("required is missing")
				}
				return nil
			}).
			Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required is missing")
		assert.Equal(t, []int{1, 2}, order)
	})

	t.Run("MaxFileSizeReachesStores", func(t *testing.T) {
		_, err := NewBuilder().WithTags().
			WithMaxFileSize(3).
			WithStore(NewPropertiesStore().AddResource(InlineResource{Content: "k=value"})).
			Build()
		assert.ErrorIs(t, err, ErrValueSize)
	})

	t.Run("LoggerReachesStores", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		_, err := NewBuilder().WithTags().
			WithLogger(zap.New(core)).
			WithStore(NewTomlStore().AddResource(FileResource("/nonexistent/app.toml"))).
			Build()
		require.NoError(t, err)
		assert.Equal(t, 1, logs.FilterMessage("skipping missing configuration resource").Len())
	})

	t.Run("MustBuildPanics", func(t *testing.T) {
		assert.Panics(t, func() { NewBuilder().WithTags("").MustBuild() })
		assert.NotPanics(t, func() { NewBuilder().WithTags().MustBuild() })
	})
}

func TestBuilderFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.toml")
	require.NoError(t, os.WriteFile(path, []byte("[default.server]\nport = 80\n[prod.server]\nport = 443\n"), 0644))

	t.Run("WithFile", func(t *testing.T) {
		cfg, err := NewBuilder().WithTags("prod").WithFile(path).Build()
		require.NoError(t, err)
		port, err := cfg.EvaluateToInt("server.port")
		require.NoError(t, err)
		assert.Equal(t, 443, port)
	})

	t.Run("FileLoadsBeforeStores", func(t *testing.T) {
		cfg, err := NewBuilder().WithTags().
			WithStore(NewMapStore().Set("server.port", "8080")).
			WithFile(path).
			Build()
		require.NoError(t, err)
		port, _ := cfg.EvaluateToInt("server.port")
		assert.Equal(t, 8080, port)
	})

	t.Run("BuildAndScan", func(t *testing.T) {
		var target struct {
			Port int `tagconf:"port"`
		}
		require.NoError(t, NewBuilder().WithTags().WithFile(path).BuildAndScan("server", &target))
		assert.Equal(t, 80, target.Port)
	})
}

func TestFileDiscovery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "myapp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("k: found\n"), 0644))

	opts := DefaultDiscoveryOptions("myapp")
	opts.UseXDG = false
	opts.UseCurrentDir = false

	t.Run("SearchPaths", func(t *testing.T) {
		o := opts
		o.Paths = []string{filepath.Join(dir, "none"), dir}
		assert.Equal(t, path, discoverFile(o, nil))
	})

	t.Run("CLIFlagFirst", func(t *testing.T) {
		t.Setenv("MYAPP_CONFIG", "/from/env.toml")
		assert.Equal(t, "/from/cli.toml", discoverFile(opts, []string{"--config", "/from/cli.toml"}))
		assert.Equal(t, "/from/cli.toml", discoverFile(opts, []string{"--config=/from/cli.toml"}))
		assert.Equal(t, "/from/env.toml", discoverFile(opts, nil))
	})

	t.Run("NothingFound", func(t *testing.T) {
		assert.Equal(t, "", discoverFile(opts, nil))
	})

	t.Run("XDG", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		t.Setenv("XDG_CONFIG_DIRS", "/a:/b")
		assert.Equal(t, []string{"/xdg/myapp", "/a/myapp", "/b/myapp"}, getXDGConfigPaths("myapp"))
	})

	t.Run("Builder", func(t *testing.T) {
		o := opts
		o.Paths = []string{dir}
		cfg, err := NewBuilder().WithTags().WithArgs(nil).WithFileDiscovery(o).Build()
		require.NoError(t, err)
		v, err := cfg.EvaluateToString("k")
		require.NoError(t, err)
		assert.Equal(t, "found", v)
	})

	t.Run("EnvBeforeSearchPaths", func(t *testing.T) {
		t.Setenv("MYAPP_CONFIG", "/from/env.toml")
		o := opts
		o.Paths = []string{dir}
		assert.Equal(t, "/from/env.toml", discoverFile(o, nil))
	})

	t.Run("CLIFlagWithoutValue", func(t *testing.T) {
		o := opts
		o.Paths = []string{dir}
		assert.Equal(t, path, discoverFile(o, []string{"--config"}))
	})

	t.Run("SearchPathOrder", func(t *testing.T) {
		first := t.TempDir()
		firstPath := filepath.Join(first, "myapp.ini")
		require.NoError(t, os.WriteFile(firstPath, []byte("k = first\n"), 0644))

		o := opts
		o.Paths = []string{first, dir}
		assert.Equal(t, firstPath, discoverFile(o, nil))
	})

	t.Run("ExtensionOrder", func(t *testing.T) {
		both := t.TempDir()
		tomlPath := filepath.Join(both, "myapp.toml")
		require.NoError(t, os.WriteFile(filepath.Join(both, "myapp.yaml"), []byte("k: yaml\n"), 0644))
		require.NoError(t, os.WriteFile(tomlPath, []byte("k = \"toml\"\n"), 0644))

		o := opts
		o.Paths = []string{both}
		assert.Equal(t, tomlPath, discoverFile(o, nil))
	})

	t.Run("DirectoryNamedLikeFile", func(t *testing.T) {
		d := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(d, "myapp.toml"), 0755))

		o := opts
		o.Paths = []string{d, dir}
		assert.Equal(t, path, discoverFile(o, nil))
	})

	t.Run("CurrentDir", func(t *testing.T) {
		t.Chdir(dir)
		o := opts
		o.UseCurrentDir = true
		got := discoverFile(o, nil)
		require.NotEmpty(t, got)
		assert.Equal(t, "myapp.yaml", filepath.Base(got))
	})

	t.Run("SearchPathsBeforeCurrentDir", func(t *testing.T) {
		other := t.TempDir()
		otherPath := filepath.Join(other, "myapp.json")
		require.NoError(t, os.WriteFile(otherPath, []byte(`{"k": "json"}`), 0644))

		t.Chdir(dir)
		o := opts
		o.UseCurrentDir = true
		o.Paths = []string{other}
		assert.Equal(t, otherPath, discoverFile(o, nil))
	})

	t.Run("XDGConfigHome", func(t *testing.T) {
		xdg := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(xdg, "myapp"), 0755))
		xdgPath := filepath.Join(xdg, "myapp", "myapp.toml")
		require.NoError(t, os.WriteFile(xdgPath, []byte("k = \"xdg\"\n"), 0644))
		t.Setenv("XDG_CONFIG_HOME", xdg)
		t.Setenv("XDG_CONFIG_DIRS", t.TempDir())

		o := opts
		o.UseXDG = true
		assert.Equal(t, xdgPath, discoverFile(o, nil))

		// current directory comes before XDG
		t.Chdir(dir)
		o.UseCurrentDir = true
		assert.Equal(t, "myapp.yaml", filepath.Base(discoverFile(o, nil)))
	})

	t.Run("XDGDefaults", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_CONFIG_DIRS", "")
		t.Setenv("HOME", "/home/u")
		assert.Equal(t,
			[]string{"/home/u/.config/myapp", "/etc/xdg/myapp", "/etc/myapp"},
			getXDGConfigPaths("myapp"))
	})

	t.Run("BuilderUsesArgs", func(t *testing.T) {
		cliDir := t.TempDir()
		cliPath := filepath.Join(cliDir, "custom.toml")
		require.NoError(t, os.WriteFile(cliPath, []byte("k = \"cli\"\n"), 0644))

		o := opts
		o.Paths = []string{dir}
		cfg, err := NewBuilder().WithTags().
			WithArgs([]string{"serve", "--config", cliPath}).
			WithFileDiscovery(o).
			Build()
		require.NoError(t, err)
		v, err := cfg.EvaluateToString("k")
		require.NoError(t, err)
		assert.Equal(t, "cli", v)
	})
}
