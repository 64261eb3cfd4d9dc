// Package main 提供 go-outbound 命令行入口
//
// 接收端：
//
//	outbound -listen 127.0.0.1:7000
//
// 发送端：
//
//	outbound -send 127.0.0.1:7000 -id worker-1 -count 10 -payload hello
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	outbound "github.com/dep2p/go-outbound"
	"github.com/dep2p/go-outbound/config"
	"github.com/dep2p/go-outbound/pkg/lib/log"
)

var logger = log.Logger("outbound/cmd")

var (
	// ─────────────────────────────────────────────────────────────────────
	// 运行模式
	// ─────────────────────────────────────────────────────────────────────
	listenAddr = flag.String("listen", "", "入站监听地址（接收模式）")
	sendAddr   = flag.String("send", "", "目的端地址（发送模式）")
	endpointID = flag.String("id", "default", "目的端逻辑端点 ID")
	count      = flag.Int("count", 1, "发送消息数")
	payload    = flag.String("payload", "ping", "消息内容")
	priority   = flag.Bool("high", false, "以高优先级发送")
	timeout    = flag.Duration("timeout", 30*time.Second, "发送超时")

	// ─────────────────────────────────────────────────────────────────────
	// 配置
	// ─────────────────────────────────────────────────────────────────────
	configFile  = flag.String("config", "", "JSON 配置文件路径")
	retryBudget = flag.Int("retry", -1, "建连重试预算（-1 = 使用配置）")
	logLevel    = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(outbound.VersionInfo())
		return nil
	}
	if *logLevel != "" {
		log.SetLevel(log.ParseLevel(*logLevel))
	}
	if *listenAddr == "" && *sendAddr == "" {
		flag.Usage()
		return fmt.Errorf("either -listen or -send is required")
	}

	opts, err := buildOptions()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	node, err := outbound.New(opts...)
	if err != nil {
		return err
	}
	defer func() { _ = node.Shutdown() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := node.Start(ctx, printInbound); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	logger.Info("节点已启动", "version", outbound.Version, "listen", node.ListenAddr())

	if *sendAddr != "" {
		if err := sendAll(ctx, node); err != nil {
			return err
		}
		printStats(node.Stats())
		if *listenAddr == "" {
			return nil
		}
	}

	fmt.Printf("监听 %s，按 Ctrl+C 退出\n", node.ListenAddr())
	waitForSignal()
	fmt.Println("\n正在关闭节点...")
	return nil
}

// buildOptions 构建选项
//
// 优先级：命令行参数 > 环境变量（OUTBOUND_*）> 配置文件 > 默认值
func buildOptions() ([]outbound.Option, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}

	opts := []outbound.Option{outbound.WithConfig(cfg)}
	if *listenAddr != "" {
		opts = append(opts, outbound.WithListenAddr(*listenAddr))
	}
	if *retryBudget >= 0 {
		opts = append(opts, outbound.WithRetryBudget(*retryBudget))
	}
	return opts, nil
}

func sendAll(ctx context.Context, node *outbound.Node) error {
	dest, err := outbound.NewDestination(*sendAddr, *endpointID)
	if err != nil {
		return err
	}

	envOpts := []outbound.EnvelopeOption{}
	if *priority {
		envOpts = append(envOpts, outbound.WithPriority(outbound.PriorityHigh))
	}

	sendCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	// 等待全部写出后再退出
	var written sync.WaitGroup
	envOpts = append(envOpts, outbound.WithDone(func(err error) {
		if err != nil {
			logger.Warn("消息未写出", "error", err)
		}
		written.Done()
	}))

	start := time.Now()
	for i := 0; i < *count; i++ {
		body := []byte(fmt.Sprintf("%s #%d", *payload, i+1))
		written.Add(1)
		if err := node.Enqueue(sendCtx, outbound.NewEnvelope(body, envOpts...), dest); err != nil {
			return fmt.Errorf("发送第 %d 条消息失败: %w", i+1, err)
		}
	}

	flushed := make(chan struct{})
	go func() {
		written.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-sendCtx.Done():
		return fmt.Errorf("等待写出超时: %w", sendCtx.Err())
	}
	fmt.Printf("已向 %s 发送 %d 条消息，耗时 %v\n", dest, *count, time.Since(start))
	return nil
}

func printInbound(from string, p []byte) {
	fmt.Printf("[%s] %s\n", from, p)
}

func printStats(s outbound.Stats) {
	fmt.Printf("就绪连接: %d  建连中: %d\n", s.Ready, s.Building)
	for _, d := range s.Destinations {
		fmt.Printf("  %-32s %-10s 已入队 %d  已发送 %d 字节  尝试 %d\n",
			d.Dest, d.State, d.Enqueued, d.BytesSent, d.Attempts)
	}
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
