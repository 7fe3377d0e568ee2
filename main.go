/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-04 17:26:10
 * @LastEditTime: 2025-10-09 11:59:31
 * @LastEditors: 安知鱼
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anzhiyu-c/anheyu-stats/cmd/server"
	"github.com/anzhiyu-c/anheyu-stats/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-stats/pkg/config"
)

func main() {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", config.DefaultConfigPath, "配置文件路径")
	flag.BoolVar(&showVersion, "version", false, "打印版本信息并退出")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetVersionString())
		return
	}

	cfg, err := config.NewConfigWithPath(configPath)
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	app, cleanup, err := server.NewAppWithConfig(cfg, server.Options{})
	if err != nil {
		log.Fatalf("应用初始化失败: %v", err)
	}
	defer cleanup()

	app.PrintBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := app.Run(ctx)
	app.Stop()
	if runErr != nil {
		log.Printf("应用运行失败: %v", runErr)
		cleanup()
		os.Exit(1)
	}
}
