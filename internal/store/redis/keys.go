package redis

// Key layout:
//   linkdex:collection  - JSON array of the full aggregated collection
//   linkdex:version     - current version token

func CollectionKey() string { return "linkdex:collection" }

func VersionKey() string { return "linkdex:version" }
