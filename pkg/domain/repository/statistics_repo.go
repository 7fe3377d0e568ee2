/*
 * @Description: 统计仓储接口
 * @Author: 安知鱼
 * @Date: 2025-10-02 12:49:18
 * @LastEditTime: 2025-10-04 20:15:25
 * @LastEditors: 安知鱼
 */
package repository

import (
	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
)

// StatisticsStore 统计记录仓储接口，独占所有 EntityStatistics / ActorActivity 记录。
// 所有方法都是纯内存操作，不会阻塞在外部 I/O 上。
type StatisticsStore interface {
	// 获取或创建条目统计。并发的首次写入只会产生一条记录，
	// 失败的一方拿到并修改胜出者的记录；默认元数据只在创建时生效。
	GetOrCreateEntity(entityID int64, defaultTitle, defaultCategory string) *model.EntityStatistics

	// 获取或创建用户活动记录，语义同上
	GetOrCreateActor(actorID int64) *model.ActorActivity

	// 查找条目统计，不存在时返回 false，不会创建
	FindEntity(entityID int64) (*model.EntityStatistics, bool)

	// 查找用户活动，不存在时返回 false，不会创建
	FindActor(actorID int64) (*model.ActorActivity, bool)

	// 弱一致性的全部条目列表（按 ID 升序）。记录本身可能在构造期间继续变化
	AllEntities() []*model.EntityStatistics

	// 弱一致性的全部用户列表（按 ID 升序）
	AllActors() []*model.ActorActivity

	// 当前跟踪的条目数
	EntityCount() int64

	// 当前跟踪的用户数
	ActorCount() int64
}
