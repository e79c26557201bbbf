package mysql

const upsertListingSQL = `
INSERT INTO listings
  (id, title, city, price, img)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  title      = VALUES(title),
  city       = VALUES(city),
  price      = VALUES(price),
  img        = VALUES(img),
  updated_at = CURRENT_TIMESTAMP
`

const insertMissSQL = `
INSERT INTO image_misses (id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Insertion order of the canonical set is id order.
const listListingsSQL = `
SELECT id, title, city, price, img
FROM listings
ORDER BY id
`
