// Package cache is the versioned response cache.
//
// Responses are grouped into named generations ("posmart-v1"). A Registry
// records which generation is active; Cache is the read/write view that the
// fetch interceptor uses and it only ever touches the active generation.
// Generations other than the active one exist only transiently, while a new
// version is installing, and are removed by the lifecycle manager on
// activation.
package cache
