// Package config loads the gurukul configuration file.
//
// The file is YAML with one section per component:
//
//	assets:
//	  synonym_map: assets/amarakosha_thesaurus.json
//	  tags: assets/master_conceptual_tags.json
//	  index: assets/conceptual_tags.idx
//	ai:
//	  backend: gemini
//	  gemini_project: my-project
//	retrieval:
//	  endpoint: https://discoveryengine.googleapis.com/v1/projects/.../servingConfigs/default_search:search
//	  use_default_credentials: true
//	content:
//	  backend: cos
//	  bucket_url: https://corpus-1250000000.cos.ap-mumbai.myqcloud.com
//	  bucket: corpus
//	cache:
//	  backend: badger
//	  path: cache/llm
//	  ttl: 720h
//	server:
//	  addr: ":5001"
//	collector:
//	  call_timeout: 30s
//
// Secrets may be left out of the file and supplied through the environment.
package config
