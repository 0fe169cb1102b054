package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	internalApp "github.com/magnusfroste/notton/internal/app"
	"github.com/magnusfroste/notton/internal/service"
	"github.com/magnusfroste/notton/pkg/logger"
	"github.com/magnusfroste/notton/pkg/util"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout default shutdown timeout duration
// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

var noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

// Client is an opened App with its configuration
type Client struct {
	app    *internalApp.App
	config *internalApp.AppConfig
	logger *zap.Logger
}

// resolveConfig changes into the working directory and picks the config
// file, writing the embedded default when none exists
// resolveConfig 切换工作目录并确定配置文件，不存在时写入默认配置
func resolveConfig(g *globalFlags) (string, error) {
	if len(g.dir) > 0 {
		if err := os.Chdir(g.dir); err != nil {
			return "", errors.Wrap(err, "failed to change the current working directory")
		}
		bootstrapLogger.Debug("working directory changed", zap.String("dir", g.dir))
	}

	// .env 仅用于提供环境变量覆盖，不存在时忽略
	if util.IsExist(".env") {
		if err := godotenv.Load(); err != nil {
			bootstrapLogger.Warn("failed to load .env", zap.Error(err))
		}
	}

	if len(g.config) > 0 {
		return g.config, nil
	}
	for _, candidate := range []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"} {
		if util.IsExist(candidate) {
			return candidate, nil
		}
	}

	bootstrapLogger.Warn("config file not found, creating default config")
	path := "config/config.yaml"
	if err := util.CreatePath(path, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "config file auto create error")
	}
	if err := os.WriteFile(path, []byte(configDefault), 0644); err != nil {
		return "", errors.Wrap(err, "config file auto create writing error")
	}
	bootstrapLogger.Info("config file auto create successfully", zap.String(logger.FieldPath, path))
	return path, nil
}

// openClient loads the configuration and opens the App container. Notices
// are printed to stderr.
// openClient 加载配置并创建 App 容器
func openClient(g *globalFlags, opts ...internalApp.Option) (*Client, error) {
	configPath, err := resolveConfig(g)
	if err != nil {
		return nil, err
	}

	cfg, realpath, err := internalApp.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()

	lg, err := logger.NewLogger(cfg.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}
	lg.Debug("config loaded", zap.String(logger.FieldPath, realpath))

	opts = append([]internalApp.Option{internalApp.WithNotifier(service.NotifierFunc(printNotice))}, opts...)
	a, err := internalApp.Open(cfg, lg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create app container: %w", err)
	}
	return &Client{app: a, config: cfg, logger: lg}, nil
}

func printNotice(n service.Notice) {
	msg := n.Message()
	if n.EntityID != "" {
		msg = fmt.Sprintf("%s (%s %s)", msg, n.EntityType, n.EntityID)
	}
	fmt.Fprintln(os.Stderr, noticeStyle.Render("notice:"), msg)
}

// withClient opens the client, starts it without periodic tasks, waits for
// the first refresh when online, runs fn and closes the client
// withClient 打开客户端执行一次性命令
func withClient(fn func(ctx context.Context, c *Client) error) error {
	c, err := openClient(global)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := c.app.Close(sctx); err != nil {
			c.logger.Warn("client shutdown completed with errors", zap.Error(err))
		}
	}()

	if err := c.app.Start(ctx, false); err != nil {
		return err
	}
	if c.app.Monitor().Online() {
		// 与启动时的后台同步共享同一次拉取
		if err := c.app.Engine.Refresh(ctx); err != nil {
			c.logger.Debug("initial refresh failed", zap.Error(err))
		}
	}
	return fn(ctx, c)
}
