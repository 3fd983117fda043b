// Package main 目录索引构建入口：读取商品目录，向量化并写入 Milvus。
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"ai-commerce-api/internal/config"
	"ai-commerce-api/internal/wire"
	"ai-commerce-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting catalog bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()

	// 2. 初始化依赖（Milvus 必需）
	boot, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize bootstrap dependencies: %v", err)
	}
	defer cleanup()

	count, err := boot.Catalog.Count(ctx)
	if err != nil {
		log.Fatalf("failed to count catalog products: %v", err)
	}
	fmt.Printf("Catalog loaded: %d products from %s\n", count, cfg.Catalog.Path)

	// 3. 构建向量索引
	stats, err := boot.Indexer.IndexCatalog(ctx)
	if err != nil {
		log.Fatalf("failed to index catalog: %v", err)
	}
	fmt.Printf("Indexed %d products: %d text vectors, %d image vectors\n",
		stats.Products, stats.TextVectors, stats.ImageVectors)

	// 4. 清掉旧的查询向量缓存，避免命中过期维度
	if err := boot.Cache.InvalidateEmbeddings(ctx); err != nil {
		fmt.Printf("Warning: failed to invalidate embedding cache: %v\n", err)
	}

	fmt.Println("Bootstrap completed successfully.")
}
