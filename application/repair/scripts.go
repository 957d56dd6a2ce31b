package repair

// Every probe returns the visible candidates as {text, ariaLabel, tagName, visible}.
// arg is the list of lower-case keywords to look for.

const toolsProbeScript = `(keywords) => Array.from(document.querySelectorAll('button'))
	.map(b => ({
		text: (b.innerText || '').trim(),
		ariaLabel: b.getAttribute('aria-label') || '',
		tagName: b.tagName.toLowerCase(),
		visible: b.offsetWidth > 0 && b.offsetHeight > 0,
	}))
	.filter(b => b.visible && keywords.some(k =>
		b.text.toLowerCase().includes(k) || b.ariaLabel.toLowerCase().includes(k)))`

const imageToolProbeScript = `(keywords) => Array.from(document.querySelectorAll('button, div[role="menuitem"], li'))
	.map(e => ({
		text: (e.innerText || '').trim(),
		ariaLabel: e.getAttribute('aria-label') || '',
		tagName: e.tagName.toLowerCase(),
		visible: e.offsetWidth > 0 && e.offsetHeight > 0,
	}))
	.filter(e => e.visible && keywords.some(k =>
		e.text.toLowerCase().includes(k) || e.ariaLabel.toLowerCase().includes(k)))`

// labelProbeScript matches on aria-label only
const labelProbeScript = `(keywords) => Array.from(document.querySelectorAll('button'))
	.map(b => ({
		text: (b.innerText || '').trim(),
		ariaLabel: b.getAttribute('aria-label') || '',
		tagName: b.tagName.toLowerCase(),
		visible: b.offsetWidth > 0 && b.offsetHeight > 0,
	}))
	.filter(b => b.visible && keywords.some(k => b.ariaLabel.toLowerCase().includes(k)))`
