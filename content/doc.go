// Package content fetches verse text from a blob store.
//
// Retrieval results carry content locators such as
// gs://corpus-bucket/gita/2/47.txt. ResolveLocator turns a locator into a
// store key, and a Store reports whether the key exists and returns its
// text. FileStore serves a local directory tree; COSStore serves a Tencent
// Cloud Object Storage bucket.
package content
