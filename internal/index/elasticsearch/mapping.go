package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for product documents.
const DefaultIndexName = "products"

// buildIndexMapping returns the JSON settings and mapping for the products
// index. Text fields that are also filtered on carry a keyword sub-field.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "max_result_window": 10000,
    "analysis": {
      "analyzer": {
        "product_text": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding", "english_stemmer"]
        }
      },
      "filter": {
        "english_stemmer": {
          "type": "stemmer",
          "language": "light_english"
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":           { "type": "keyword" },
      "name":         { "type": "text", "analyzer": "product_text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "description":  { "type": "text", "analyzer": "product_text" },
      "category":     { "type": "text", "analyzer": "product_text", "fields": { "keyword": { "type": "keyword" } } },
      "brand":        { "type": "text", "analyzer": "product_text", "fields": { "keyword": { "type": "keyword" } } },
      "tags":         { "type": "text", "analyzer": "product_text", "fields": { "keyword": { "type": "keyword" } } },
      "price":        { "type": "double" },
      "offerPrice":   { "type": "double" },
      "discount":     { "type": "double" },
      "rating":       { "type": "double" },
      "views":        { "type": "long" },
      "sold":         { "type": "long" },
      "stock":        { "type": "long" },
      "image":        { "type": "keyword", "index": false },
      "images":       { "type": "keyword", "index": false },
      "isBestSeller": { "type": "boolean" },
      "isNewProduct": { "type": "boolean" },
      "createdAt":    { "type": "date" },
      "updatedAt":    { "type": "date" },
      "indexedAt":    { "type": "date" }
    }
  }
}`
}
