package middleware

import (
	"fmt"
	"net/http"
	"time"

	"agency-crm-backend/pkg/config"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger 创建日志中间件
func Logger(cfg *config.Config) func(http.Handler) http.Handler {
	if cfg.IsProduction() {
		return structuredLogger
	}
	// 开发环境：统一使用Chi的默认日志中间件
	return middleware.Logger
}

// structuredLogger 生产环境结构化请求日志
func structuredLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// 创建响应写入器包装器来捕获状态码
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		// 获取用户信息（如果有）
		userInfo := "anonymous"
		if user, ok := GetUserFromContext(r.Context()); ok && user != nil {
			userInfo = user.Email
		}

		fmt.Printf(`{"time":"%s","method":"%s","path":"%s","status":%d,"duration":"%s","user":"%s","ip":"%s"}`+"\n",
			time.Now().Format(time.RFC3339),
			r.Method,
			r.URL.Path,
			ww.Status(),
			duration,
			userInfo,
			getClientIP(r),
		)
	})
}

// getClientIP 获取客户端IP地址
func getClientIP(r *http.Request) string {
	// 检查X-Forwarded-For头（代理/负载均衡器）
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}
