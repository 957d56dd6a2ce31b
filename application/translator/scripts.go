package translator

// revealFileInputScript makes the hidden file input interactable and returns it
const revealFileInputScript = `
const input = document.querySelector(arg);
if (!input) return null;
Object.assign(input.style, {
	display: 'block',
	visibility: 'visible',
	opacity: '1',
	position: 'fixed',
	top: '0',
	left: '0',
	width: '100px',
	height: '100px',
	zIndex: '999999',
});
return input;
`

// sendPromptScript sets the textbox content and clicks send once the app
// has picked up the input event
const sendPromptScript = `(arg) => {
	const textbox = document.querySelector(arg.textbox);
	if (!textbox) return false;
	textbox.focus();
	textbox.innerText = arg.text;
	textbox.dispatchEvent(new Event('input', { bubbles: true }));
	setTimeout(() => {
		for (const label of arg.labels) {
			const send = document.querySelector('button[aria-label="' + CSS.escape(label) + '"]');
			if (send) {
				send.click();
				return;
			}
		}
	}, 500);
	return true;
}`
