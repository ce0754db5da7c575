package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flowforge/internal/config"
	"flowforge/internal/handler"
	"flowforge/internal/svc"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
)

var configFile = flag.String("f", "etc/flowforge.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)
	logx.Must(c.Validate())

	server := rest.MustNewServer(c.RestConf)
	defer server.Stop()

	ctx := svc.NewServiceContext(c)
	defer ctx.Stop()
	handler.RegisterHandlers(server, ctx)

	// 设置优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("Starting server at %s:%d...\n", c.Host, c.Port)
	fmt.Printf("🔗 %d chains configured for onboarding\n", len(c.Chains))

	// 在独立的goroutine中启动服务器
	go func() {
		server.Start()
	}()

	// 等待退出信号
	<-quit
	fmt.Println("\n🛑 收到退出信号，正在优雅关闭服务...")
}
