package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	redigo "github.com/redis/go-redis/v9"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/adapter/storage/redis"
	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[37m"
)

const pollInterval = 2 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redigo.NewUniversalClient(&redigo.UniversalOptions{
		Addrs:    []string{addr},
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer client.Close()

	if _, err := client.Ping(ctx).Result(); err != nil {
		fmt.Printf("Redis unreachable at %s: %v\n", addr, err)
		os.Exit(1)
	}

	fmt.Println(colorCyan + "🚀 Fog Topology Monitor Starting..." + colorReset)
	fmt.Println(colorGray + "Polling node state from " + addr + "..." + colorReset)
	fmt.Println("-------------------------------------------------------------------------")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nMonitor stopped.")
			return
		case <-ticker.C:
			nodes, err := redis.ActiveNodes(ctx, client)
			if err != nil {
				fmt.Printf(colorRed+"Error reading node state: %v\n"+colorReset, err)
				continue
			}
			render(nodes)
		}
	}
}

func render(nodes []domain.NodeSnapshot) {
	if len(nodes) == 0 {
		fmt.Println(colorGray + "No active nodes (simulation idle?)" + colorReset)
		return
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].NodeID < nodes[j].NodeID })

	fmt.Printf("\n%s── t=%.1fs ──%s\n", colorGray, nodes[0].ObservedAt, colorReset)
	for _, n := range nodes {
		status := colorGreen + "UP  " + colorReset
		if n.Status == domain.NodeStatusFailed {
			status = colorRed + "DOWN" + colorReset
		}

		load := colorGreen
		if n.Utilization > 0.8 {
			load = colorRed
		} else if n.Utilization > 0.5 {
			load = colorYellow
		}

		fmt.Printf("[%s] %s%-13s%s util %s%5.1f%%%s queue %2d busy %d/%d done %d offloaded %d\n",
			status,
			colorBlue, n.NodeID, colorReset,
			load, n.Utilization*100, colorReset,
			n.QueueLength,
			n.ActiveTasks, n.Capacity,
			n.TasksProcessed, n.TasksOffloaded)
	}
}
