package mysql

const upsertHotelSQL = `
INSERT INTO hotels
  (id, name, description, location, image_url, price_per_night, rating,
   amenities, owner_id, virtual_tour_url, additional_images,
   subscription_status, subscription_end_date)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name                  = VALUES(name),
  description           = VALUES(description),
  location              = VALUES(location),
  image_url             = VALUES(image_url),
  price_per_night       = VALUES(price_per_night),
  rating                = VALUES(rating),
  amenities             = VALUES(amenities),
  owner_id              = VALUES(owner_id),
  virtual_tour_url      = VALUES(virtual_tour_url),
  additional_images     = VALUES(additional_images),
  subscription_status   = VALUES(subscription_status),
  subscription_end_date = VALUES(subscription_end_date)
`

const hotelColumns = `
  id, name, description, location, image_url, price_per_night, rating,
  amenities, owner_id, virtual_tour_url, additional_images,
  subscription_status, subscription_end_date, created_at`

const getHotelSQL = `SELECT` + hotelColumns + `
FROM hotels
WHERE id = ?`

const listHotelsSQL = `SELECT` + hotelColumns + `
FROM hotels
ORDER BY id`

const insertBookingSQL = `
INSERT INTO bookings (user_id, hotel_id, check_in, check_out, total_price, status)
VALUES (?, ?, ?, ?, ?, ?)
`

const getBookingSQL = `
SELECT id, user_id, hotel_id, check_in, check_out, total_price, status, created_at
FROM bookings
WHERE id = ?
`

const listUserBookingsSQL = `
SELECT id, user_id, hotel_id, check_in, check_out, total_price, status, created_at
FROM bookings
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
`

const insertUserSQL = `
INSERT INTO users (username, password, email, is_hotel_owner)
VALUES (?, ?, ?, ?)
`

const userColumns = `id, username, password, email, is_hotel_owner, created_at`

const getUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

const getUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
