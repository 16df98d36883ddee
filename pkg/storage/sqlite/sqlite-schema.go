package sqlite

const schema = `
BEGIN TRANSACTION;

CREATE TABLE
	IF NOT EXISTS countries (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		code TEXT NOT NULL UNIQUE
	);

CREATE TABLE
	IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		country_id INTEGER,
		profile_photo TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		created datetime NOT NULL,
		FOREIGN KEY (country_id) REFERENCES countries (id)
	);

CREATE TABLE
	IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created datetime NOT NULL,
		expires datetime NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	);

CREATE TABLE
	IF NOT EXISTS editions (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		publication_date datetime NOT NULL,
		folder_ref TEXT,
		status TEXT NOT NULL DEFAULT 'planning',
		country_id INTEGER NOT NULL,
		created datetime NOT NULL,
		FOREIGN KEY (country_id) REFERENCES countries (id)
	);

CREATE TABLE
	IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL CHECK (length ("title") <= 60),
		content TEXT NOT NULL CHECK (length ("content") <= 600),
		deadline datetime NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		author_id INTEGER NOT NULL,
		edition_id INTEGER NOT NULL,
		FOREIGN KEY (author_id) REFERENCES users (id),
		FOREIGN KEY (edition_id) REFERENCES editions (id)
	);

CREATE TABLE
	IF NOT EXISTS article_images (
		id INTEGER PRIMARY KEY,
		article_id INTEGER NOT NULL,
		filename TEXT NOT NULL,
		uploaded datetime NOT NULL,
		FOREIGN KEY (article_id) REFERENCES articles (id) ON DELETE CASCADE
	);

CREATE TABLE
	IF NOT EXISTS events (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		start_time datetime NOT NULL,
		end_time datetime,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		country_id INTEGER,
		created_by INTEGER NOT NULL,
		FOREIGN KEY (country_id) REFERENCES countries (id),
		FOREIGN KEY (created_by) REFERENCES users (id)
	);

CREATE TABLE
	IF NOT EXISTS manuals (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		filename TEXT NOT NULL,
		target_role TEXT NOT NULL,
		uploaded datetime NOT NULL
	);

CREATE TABLE
	IF NOT EXISTS embassy_lists (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		country_id INTEGER NOT NULL,
		created datetime NOT NULL,
		FOREIGN KEY (country_id) REFERENCES countries (id)
	);

CREATE TABLE
	IF NOT EXISTS embassies (
		id INTEGER PRIMARY KEY,
		list_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		ambassador_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		instagram TEXT NOT NULL DEFAULT '',
		photo TEXT,
		created datetime NOT NULL,
		FOREIGN KEY (list_id) REFERENCES embassy_lists (id) ON DELETE CASCADE
	);

CREATE INDEX IF NOT EXISTS "Editions Country Index" ON "editions" ("country_id");
CREATE INDEX IF NOT EXISTS "Articles Edition Index" ON "articles" ("edition_id");
CREATE INDEX IF NOT EXISTS "Events Country Index" ON "events" ("country_id");

COMMIT;
`
