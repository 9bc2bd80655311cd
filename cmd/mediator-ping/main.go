// Command mediator-ping runs the counter service or sends it a Ping.
//
//	mediator-ping -mode server -config ping.yaml
//	mediator-ping -mode client -config ping.yaml -count 101
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/BlueOwlOpenSource/mediator"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
)

var requests = mediator.NewRegistry("counter")

type Ping struct {
	mediator.Returns[Pong]
	Count int `json:"Count"`
}

type Pong struct {
	NewCount int `json:"NewCount"`
}

func (Ping) Route() mediator.Route {
	return mediator.Route{Method: http.MethodGet, Template: "/ping"}
}

type Add struct {
	mediator.Returns[Total]
	Amount int `json:"Amount"`
}

type Total struct {
	Value int `json:"Value"`
}

func (Add) Route() mediator.Route {
	return mediator.Route{Method: http.MethodPost, Template: "/counter"}
}

func (a Add) Validate(ctx context.Context) []mediator.ValidationFailure {
	if a.Amount <= 0 {
		return []mediator.ValidationFailure{{Field: "Amount", Message: "must be positive"}}
	}
	return nil
}

func init() {
	mediator.Register[Ping, Pong](requests)
	mediator.Register[Add, Total](requests)
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	mode := flag.String("mode", "server", "server, gin or client")
	count := flag.Int("count", 0, "Ping count (client mode)")
	add := flag.Int("add", 0, "amount to add to the counter (client mode, skipped when 0)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Log.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *mode {
	case "server", "gin":
		err = serve(ctx, cfg, logger, *mode == "gin")
	case "client":
		err = ping(ctx, cfg, logger, *count, *add)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func loadConfig(path string) (mediator.Config, error) {
	if path == "" {
		return mediator.ParseConfig([]byte("client:\n  base_uri: http://localhost:8080/api\n"))
	}
	return mediator.LoadConfig(path)
}

func serve(ctx context.Context, cfg mediator.Config, logger mediator.Logger, useGin bool) error {
	var total atomic.Int64
	dispatcher := mediator.NewDispatcher()
	mediator.Handle[Ping, Pong](dispatcher, func(ctx context.Context, p Ping) (mediator.HTTPResult[Pong], error) {
		return mediator.OkStatus(Pong{NewCount: p.Count + 1}), nil
	})
	mediator.Handle[Add, Total](dispatcher, func(ctx context.Context, a Add) (mediator.HTTPResult[Total], error) {
		return mediator.Ok(Total{Value: int(total.Add(int64(a.Amount)))}, http.StatusCreated), nil
	})

	server := mediator.NewServer("counter", cfg.Server, requests, dispatcher,
		mediator.DefaultServerMiddleware(logger, nil)...).WithLogger(logger)

	var handler http.Handler
	if useGin {
		gin.SetMode(gin.ReleaseMode)
		engine := gin.New()
		server.StartGin(engine)
		handler = engine
	} else {
		router := mux.NewRouter()
		server.StartMux(router)
		handler = router
	}
	logger.Logf(mediator.LevelInfo, "listening on %s", cfg.Server.Addr)
	return mediator.ListenAndServe(ctx, cfg.Server, handler, 5*time.Second)
}

func ping(ctx context.Context, cfg mediator.Config, logger mediator.Logger, count, add int) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	client := mediator.NewClient(cfg.Client, requests, mediator.DefaultClientMiddleware(logger, nil)...)
	result, err := mediator.Send[Pong](ctx, client, Ping{Count: count})
	if err != nil {
		return err
	}
	if !result.IsOk() {
		return fmt.Errorf("ping failed (%d): %s", result.StatusCode(), result.Err().Message())
	}
	fmt.Println(result.Value().NewCount)

	if add == 0 {
		return nil
	}
	total, err := mediator.Send[Total](ctx, client, Add{Amount: add})
	if err != nil {
		return err
	}
	if !total.IsOk() {
		return fmt.Errorf("add failed (%d): %s", total.StatusCode(), total.Err().Message())
	}
	fmt.Println(total.Value().Value)
	return nil
}
