// Package store 提供 core.Store 的实现：
//
//   - MemoryStore：内存实现，测试与开发使用
//   - RedisStore：Redis 实现，多实例部署使用
//
// 接口定义在 core 包，此包只包含实现。
//
//	var s core.Store = store.NewMemoryStore()
//	catalog, _ := store.LoadCatalog("catalog.yaml")
//	_, _ = catalog.Seed(ctx, s)
package store
