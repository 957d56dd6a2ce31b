package instagram

// deepPostsScript returns every link to a post or reel on the page
const deepPostsScript = `
return Array.from(document.querySelectorAll('a')).filter(a =>
	a.href && (a.href.includes('/p/') || a.href.includes('/reel/'))
);
`

// carouselNextScript finds the carousel arrow inside the open post, not the
// arrow that moves to the next post
const carouselNextScript = `
const article = document.querySelector('article');
if (!article) return null;
const buttons = article.querySelectorAll('button[aria-label*="Siguiente"], button[aria-label*="Next"]');
for (const btn of buttons) {
	if (btn.closest('div._aahi, div._aagw, ul') && btn.offsetParent !== null) return btn;
}
for (const btn of buttons) {
	if (btn.offsetParent !== null) return btn;
}
return null;
`

const (
	scrollDownScript = "() => window.scrollTo(0, 500)"
	scrollTopScript  = "() => window.scrollTo(0, 0)"
	countLinksScript = "() => document.querySelectorAll('a').length"
)
