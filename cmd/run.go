package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalApp "github.com/magnusfroste/notton/internal/app"
	"github.com/magnusfroste/notton/internal/routers"
	"github.com/magnusfroste/notton/pkg/logger"
	"github.com/magnusfroste/notton/pkg/safe_close"

	"github.com/gin-gonic/gin"
	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Runner is the long running sync client: App container, periodic tasks
// and the private HTTP listener
type Runner struct {
	logger            *zap.Logger
	client            *Client
	privateHttpServer *http.Server
	sc                *safe_close.SafeClose
}

func init() {
	var runCommand = &cobra.Command{
		Use:   "run [-c config_file] [-d working_dir]",
		Short: "Run the sync client until interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := NewRunner(global)
			if err != nil {
				bootstrapLogger.Error("sync client start err", zap.Error(err))
				return
			}

			go func() {
				w := watcher.New()

				// Set MaxEvents to 1 to receive at most 1 event in each listening cycle
				// 将 SetMaxEvents 设置为 1，以便在每个监听周期中至多接收 1 个事件
				w.SetMaxEvents(1)

				// Only notify write events.
				// 只通知写入事件。
				w.FilterOps(watcher.Write)

				go func() {
					for {
						select {
						case event := <-w.Event:
							s.logger.Info("config watcher change", zap.String("event", event.Op.String()), zap.String("file", event.Path))
							s.sc.SendCloseSignal(nil)
							if err := s.sc.WaitClosed(); err != nil {
								s.logger.Warn("shutdown before reload completed with error", zap.Error(err))
							}

							// Re-initialize runner
							// 重新初始化
							next, err := NewRunner(global)
							if err != nil {
								bootstrapLogger.Error("sync client restart err", zap.Error(err))
								continue
							}
							s = next

						case err := <-w.Error:
							s.logger.Error("config watcher error", zap.Error(err))
						case <-w.Closed:
							bootstrapLogger.Info("config watcher closed")
							return
						}
					}
				}()

				// Watch config file
				// 监听配置文件
				if err := w.Add(s.client.config.File); err != nil {
					s.logger.Error("config watcher file error", zap.Error(err))
				}

				// Start watching
				// 启动监听
				if err := w.Start(time.Second * 5); err != nil {
					s.logger.Error("config watcher start error", zap.Error(err))
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			s.logger.Info("Received shutdown signal, initiating graceful shutdown...")
			s.sc.SendCloseSignal(nil)

			// Wait for all shutdown handlers to complete (including App Container graceful shutdown)
			// 等待所有关闭处理器完成（包括 App Container 的优雅关闭）
			if err := s.sc.WaitClosed(); err != nil {
				s.logger.Error("Shutdown completed with error", zap.Error(err))
			} else {
				s.logger.Info("Sync client has been shut down gracefully.")
			}
		},
	}

	rootCmd.AddCommand(runCommand)
}

// NewRunner opens the client, starts sync and periodic tasks and the
// private HTTP listener
func NewRunner(g *globalFlags) (*Runner, error) {
	c, err := openClient(g)
	if err != nil {
		return nil, err
	}
	s := &Runner{
		logger: c.logger,
		client: c,
		sc:     safe_close.NewSafeClose(),
	}

	// Register App Container graceful shutdown first so it runs even when
	// the listener fails
	// 注册 App Container 的优雅关闭
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := c.app.Close(ctx); err != nil {
			s.logger.Error("failed to shutdown app container", zap.Error(err))
		}
	})

	if err := c.app.Start(context.Background(), true); err != nil {
		s.sc.SendCloseSignal(err)
		_ = s.sc.WaitClosed()
		return nil, fmt.Errorf("start sync client: %w", err)
	}

	s.logger.Warn(fmt.Sprintf("%s v%s  Git: %s  BuildTime: %s", internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime),
		zap.String(logger.FieldDeviceID, c.app.DeviceID()),
		zap.Bool(logger.FieldOnline, c.app.Engine.Online()),
		zap.Int("pending", c.app.Engine.PendingCount()))

	if addr := c.config.Server.PrivateHttpListen; len(addr) > 0 {
		s.startPrivateHTTP(addr)
	}
	return s, nil
}

func (s *Runner) startPrivateHTTP(addr string) {
	cfg := s.client.config
	if cfg.Server.RunMode == gin.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.logger.Info("private_router", zap.String("config.server.PrivateHttpListen", addr))
	s.privateHttpServer = &http.Server{
		Addr: addr,
		Handler: routers.NewPrivateRouter(routers.Options{
			RunMode:  cfg.Server.RunMode,
			Logger:   s.logger.Named("http"),
			Gatherer: s.client.app.Registry(),
			Status:   s.client.app.Engine,
			Version:  s.client.app.Version(),
		}),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- s.privateHttpServer.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			if err != http.ErrServerClosed {
				s.logger.Error("private api service err", zap.Error(err))
			}
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Stop HTTP server
			// 停止 HTTP 服务器
			if err := s.privateHttpServer.Shutdown(ctx); err != nil {
				s.logger.Error("private api service shutdown error", zap.Error(err))
			}
		}
	})
}
