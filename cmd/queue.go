package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/magnusfroste/notton/internal/dto"
	"github.com/magnusfroste/notton/internal/service"

	"github.com/spf13/cobra"
)

const (
	drainWaitAttempts = 50
	drainWaitInterval = 200 * time.Millisecond
)

func init() {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and drain the pending operation queue",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending operations in replay order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *Client) error {
				ops := dto.NewPendingOperationDTOs(c.app.Engine.PendingOperations())
				if global.json {
					return printJSON(dto.QueueDTO{Online: c.app.Engine.Online(), Operations: ops})
				}
				rows := make([][]string, 0, len(ops))
				for _, op := range ops {
					rows = append(rows, []string{
						op.ID, op.EntityType, op.Action, formatTime(op.Timestamp), strconv.Itoa(op.Attempts), op.LastError,
					})
				}
				printTable([]string{"ID", "Entity", "Action", "Queued", "Attempts", "Last error"}, rows)
				return nil
			})
		},
	}

	drainCmd := &cobra.Command{
		Use:   "drain",
		Short: "Replay pending operations against the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *Client) error {
				if !c.app.Engine.Online() {
					return fmt.Errorf("remote store unreachable, %d operations stay queued", c.app.Engine.PendingCount())
				}
				// 启动时的后台同步可能正在重放，等待其结束
				var res service.DrainResult
				var err error
				for i := 0; i < drainWaitAttempts; i++ {
					res, err = c.app.Engine.Drain(ctx)
					if err != nil {
						return err
					}
					if !res.Skipped {
						break
					}
					time.Sleep(drainWaitInterval)
				}
				out := dto.NewDrainResultDTO(res, c.app.Engine.PendingCount())
				if global.json {
					return printJSON(out)
				}
				if out.Skipped {
					fmt.Println("another drain is running")
					return nil
				}
				fmt.Printf("attempted %d, succeeded %d, failed %d, remaining %d\n",
					out.Attempted, out.Succeeded, out.Failed, out.Remaining)
				return nil
			})
		},
	}

	queueCmd.AddCommand(listCmd, drainCmd)
	rootCmd.AddCommand(queueCmd)
}
