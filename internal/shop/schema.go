package shop

// Schema is the complete shop schema. Every statement is idempotent so Open
// can run it unconditionally.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
    name          TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    title         TEXT NOT NULL DEFAULT '',
    birth_date    TEXT NOT NULL DEFAULT '',
    birth_month   TEXT NOT NULL DEFAULT '',
    birth_year    TEXT NOT NULL DEFAULT '',
    firstname     TEXT NOT NULL DEFAULT '',
    lastname      TEXT NOT NULL DEFAULT '',
    company       TEXT NOT NULL DEFAULT '',
    address1      TEXT NOT NULL DEFAULT '',
    address2      TEXT NOT NULL DEFAULT '',
    country       TEXT NOT NULL DEFAULT '',
    state         TEXT NOT NULL DEFAULT '',
    city          TEXT NOT NULL DEFAULT '',
    zipcode       TEXT NOT NULL DEFAULT '',
    mobile_number TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    token      TEXT PRIMARY KEY,
    account_id INTEGER REFERENCES accounts(id) ON DELETE CASCADE,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_account ON sessions(account_id);

CREATE TABLE IF NOT EXISTS products (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    price          INTEGER NOT NULL,
    category       TEXT NOT NULL,
    brand          TEXT NOT NULL,
    description_md TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cart_items (
    session_token TEXT NOT NULL REFERENCES sessions(token) ON DELETE CASCADE,
    product_id    INTEGER NOT NULL REFERENCES products(id),
    quantity      INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (session_token, product_id)
);

CREATE TABLE IF NOT EXISTS orders (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    reference    TEXT NOT NULL UNIQUE,
    account_id   INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    name_on_card TEXT NOT NULL,
    card_last4   TEXT NOT NULL,
    comment      TEXT NOT NULL DEFAULT '',
    total        INTEGER NOT NULL,
    created_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_account ON orders(account_id);

CREATE TABLE IF NOT EXISTS order_items (
    order_id     INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id   INTEGER NOT NULL REFERENCES products(id),
    product_name TEXT NOT NULL,
    unit_price   INTEGER NOT NULL,
    quantity     INTEGER NOT NULL,
    PRIMARY KEY (order_id, product_id)
);
`

// seedProducts is the fixed catalog. IDs are stable so cart and order rows
// in a reopened file database keep pointing at the same products.
var seedProducts = []Product{
	{
		ID: 1, Name: "Blue Top", Price: 500, Category: "Women > Tops", Brand: "Polo",
		DescriptionMD: "A classic **blue top** in breathable cotton.\n\n- Regular fit\n- Machine washable",
	},
	{
		ID: 2, Name: "Men Tshirt", Price: 400, Category: "Men > Tshirts", Brand: "H&M",
		DescriptionMD: "Plain crew-neck tshirt. *Wardrobe staple.*",
	},
	{
		ID: 3, Name: "Sleeveless Dress", Price: 1000, Category: "Women > Dress", Brand: "Madame",
		DescriptionMD: "Sleeveless summer dress with a **flared skirt**.",
	},
	{
		ID: 4, Name: "Stylish Dress", Price: 1500, Category: "Women > Dress", Brand: "Madame",
		DescriptionMD: "Evening dress in satin finish.\n\n- Dry clean only",
	},
	{
		ID: 5, Name: "Winter Top", Price: 600, Category: "Women > Tops", Brand: "Mast & Harbour",
		DescriptionMD: "Warm knitted top for cold days.",
	},
	{
		ID: 6, Name: "Summer White Top", Price: 400, Category: "Women > Tops", Brand: "H&M",
		DescriptionMD: "Lightweight white top, *perfect for summer*.",
	},
	{
		ID: 7, Name: "Madame Top For Women", Price: 1000, Category: "Women > Tops", Brand: "Madame",
		DescriptionMD: "Signature Madame cut with **embroidered collar**.",
	},
	{
		ID: 8, Name: "Fancy Green Top", Price: 700, Category: "Women > Tops", Brand: "Polo",
		DescriptionMD: "Green top with fancy neckline.\n\n- Slim fit",
	},
}
