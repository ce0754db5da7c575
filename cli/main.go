package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"flowforge/internal/pkg/auth"

	"github.com/zeromicro/go-zero/rest/httpc"
)

type retryReq struct {
	Authorization string `header:"Authorization"`
	Chain         string `json:"chain"`
}

type authReq struct {
	Authorization string `header:"Authorization"`
}

func main() {
	// 1. 定义命令行参数
	server := flag.String("server", "http://localhost:8888", "服务地址")
	action := flag.String("action", "status", "操作: status, run, retry, logout, chains")
	chain := flag.String("chain", "", "retry 时要重试的链 (id 或 chain id)")
	token := flag.String("token", "", "访问令牌")
	secret := flag.String("secret", "", "AccessSecret: 未提供 token 时签发令牌, 提供时在本地校验")
	user := flag.String("user", "", "签发令牌用的用户 id")
	address := flag.String("address", "", "签发令牌用的主钱包地址")
	flag.Parse()

	// 2. 准备访问令牌
	bearer, err := resolveToken(*token, *secret, *user, *address)
	if err != nil {
		log.Fatalf("错误: %v", err)
	}
	header := authReq{Authorization: "Bearer " + bearer}

	// 3. 发送请求
	base := strings.TrimRight(*server, "/") + "/api"
	ctx := context.Background()
	var resp *http.Response
	switch *action {
	case "status":
		resp, err = httpc.Do(ctx, http.MethodGet, base+"/onboarding/status", header)
	case "run":
		resp, err = httpc.Do(ctx, http.MethodPost, base+"/onboarding/run", header)
	case "retry":
		if *chain == "" {
			log.Fatal("错误: retry 需要 -chain")
		}
		resp, err = httpc.Do(ctx, http.MethodPost, base+"/onboarding/retry", retryReq{
			Authorization: header.Authorization,
			Chain:         *chain,
		})
	case "logout":
		resp, err = httpc.Do(ctx, http.MethodDelete, base+"/onboarding/session", header)
	case "chains":
		resp, err = httpc.Do(ctx, http.MethodGet, base+"/chains", header)
	default:
		log.Fatalf("错误: 未知操作 %q", *action)
	}
	if err != nil {
		log.Fatalf("错误: 发送请求失败: %v", err)
	}
	defer resp.Body.Close()

	// 4. 读取并打印响应结果
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("错误: 读取响应体失败: %v", err)
	}

	fmt.Println("\n--- 响应结果 ---")
	fmt.Printf("状态码: %d\n", resp.StatusCode)
	fmt.Printf("响应体: %s\n", string(body))
}

// resolveToken 返回要使用的访问令牌. 提供了 -token 且有 -secret 时先在本地校验,
// 否则用 secret 为 user/address 签发一个一小时的令牌.
func resolveToken(token, secret, user, address string) (string, error) {
	if token != "" {
		if secret != "" {
			if _, err := auth.ParseToken(secret, token); err != nil {
				return "", fmt.Errorf("令牌校验失败: %w", err)
			}
		}
		return token, nil
	}

	if secret == "" || user == "" || address == "" {
		return "", errors.New("需要 -token, 或者同时提供 -secret -user -address")
	}
	issued, err := auth.IssueToken(secret, auth.Identity{UserId: user, Address: address}, time.Hour)
	if err != nil {
		return "", fmt.Errorf("无法签发令牌: %w", err)
	}
	return issued, nil
}
