// Command hybridrec 是混合推荐引擎的命令行入口。
//
//	hybridrec [-config config.yaml] <command> [flags]
//
// 命令：
//
//	train                               从存储全量训练并输出统计
//	recommend -user u1 [-n 10]          训练后为用户推荐，候选为全部商品
//	record -user u1 -product p1 -kind view [-rating 5]
//	stats [-user u1] [-product p1]      输出用户或商品的行为统计
//	status                              训练后输出模型状态
//	serve [-interval 5m]                定时重训，并在 metrics.addr 暴露 /metrics
//
// 使用内存存储时每次运行都从 store.catalog 重新加载种子数据。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/logging"
	"github.com/rushteam/hybridrec/metrics"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "hybridrec:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	global := flag.NewFlagSet("hybridrec", flag.ContinueOnError)
	configPath := global.String("config", "", "config file (default $HYBRIDREC_CONFIG or ./config.yaml)")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errors.New("missing command: train | recommend | record | stats | status | serve")
	}
	cmd, cmdArgs := global.Arg(0), global.Args()[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	switch cmd {
	case "train":
		return a.cmdTrain(ctx, out)
	case "recommend":
		return a.cmdRecommend(ctx, cmdArgs, out)
	case "record":
		return a.cmdRecord(ctx, cmdArgs, out)
	case "stats":
		return a.cmdStats(ctx, cmdArgs, out)
	case "status":
		return a.cmdStatus(ctx, out)
	case "serve":
		return a.cmdServe(ctx, cmdArgs)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) cmdTrain(ctx context.Context, out io.Writer) error {
	stats, err := a.recommender.TrainFromStore(ctx, a.store)
	if err != nil {
		return err
	}
	return writeJSON(out, stats)
}

func (a *app) cmdStatus(ctx context.Context, out io.Writer) error {
	if _, err := a.recommender.TrainFromStore(ctx, a.store); err != nil {
		return err
	}
	return writeJSON(out, a.recommender.Status())
}

func (a *app) cmdRecommend(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	user := fs.String("user", "", "user id")
	n := fs.Int("n", a.cfg.Recommend.DefaultTopN, "number of products")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return errors.New("recommend: -user is required")
	}

	if _, err := a.recommender.TrainFromStore(ctx, a.store); err != nil {
		return err
	}
	candidates, err := a.store.ListProducts(ctx)
	if err != nil {
		return err
	}
	ctx = logging.ContextWithRequestID(ctx, logging.NewRequestID())
	products := a.recommender.RecommendForUser(ctx, *user, candidates, *n)
	return writeJSON(out, map[string]interface{}{
		"user_id":         *user,
		"recommendations": products,
	})
}

func (a *app) cmdRecord(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	user := fs.String("user", "", "user id")
	product := fs.String("product", "", "product id")
	kind := fs.String("kind", string(core.KindView), "interaction kind")
	rating := fs.Int("rating", 0, "rating 1-5, only for kind=rating")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := core.Interaction{
		UserID:    *user,
		ProductID: *product,
		Kind:      core.InteractionKind(*kind),
		Rating:    *rating,
		Timestamp: time.Now(),
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("record: unknown kind %q", *kind)
	}
	if err := a.store.RecordInteraction(ctx, in); err != nil {
		return err
	}
	return writeJSON(out, in)
}

func (a *app) cmdStats(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	user := fs.String("user", "", "user id")
	product := fs.String("product", "", "product id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result := make(map[string]interface{}, 2)
	if *user != "" {
		us, err := a.store.UserStats(ctx, *user)
		if err != nil {
			return err
		}
		result["user"] = us
	}
	if *product != "" {
		ps, err := a.store.ProductStats(ctx, *product)
		if err != nil {
			return err
		}
		result["product"] = ps
	}
	if len(result) == 0 {
		return errors.New("stats: -user or -product is required")
	}
	return writeJSON(out, result)
}

func (a *app) cmdServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	interval := fs.Duration("interval", 5*time.Minute, "retrain interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var srv *http.Server
	if a.cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logging.Info().Str("addr", srv.Addr).Msg("metrics server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	retrain := func() {
		if _, err := a.recommender.TrainFromStore(ctx, a.store); err != nil {
			logging.Error().Err(err).Msg("retrain")
		}
	}
	retrain()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
			return nil
		case <-ticker.C:
			retrain()
		}
	}
}
