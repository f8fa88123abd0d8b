// FILE: lixenwraith/tagconf/example/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/tagconf"
)

const appProperties = `
server.host=localhost
server.port=8080
server.timeout=5s
db.url=jdbc:h2:mem:#{server.host}
@production.server.host=app.example.com
@production.server.port=443
@production.db.url=postgres://#{server.host}/app
`

// Server is populated through explicit bindings.
type Server struct {
	Host    string
	Port    int
	Timeout time.Duration
	Workers int
}

func (s *Server) BindConfig(b *tagconf.Bindings) {
	tagconf.Bind(b, "server.host", &s.Host, tagconf.Required())
	tagconf.Bind(b, "server.port", &s.Port, tagconf.Required())
	tagconf.Bind(b, "server.timeout", &s.Timeout, tagconf.Default("30s"))
	tagconf.Bind(b, "server.workers", &s.Workers, tagconf.DefaultFunc(func() int { return 4 }))
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, err := tagconf.NewBuilder().
		WithLogger(logger).
		WithTags().
		WithStore(tagconf.NewPropertiesStore().
			AddResource(tagconf.InlineResource{Name: "app.properties", Content: appProperties})).
		WithStore(tagconf.NewEnvStore("DEMO_")).
		Build()
	if err != nil {
		log.Fatal(err)
	}

	server, err := tagconf.As[Server](cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Configure(server); err != nil {
		log.Fatal(err)
	}

	changes := cfg.Watch()
	defer cfg.StopWatching()

	show := func() {
		url, _ := cfg.EvaluateToString("db.url")
		fmt.Printf("tags=%v server=%+v db.url=%s\n", cfg.CurrentTags(), *server, url)
	}

	show()
	if err := cfg.PrependTag("production"); err != nil {
		log.Fatal(err)
	}
	change := <-changes
	fmt.Printf("tags changed: %v -> %v\n", change.Old, change.New)
	show()

	if err := cfg.Dump(os.Stdout); err != nil {
		log.Fatal(err)
	}
}
