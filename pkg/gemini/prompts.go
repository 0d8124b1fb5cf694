package gemini

const analyzeImagePrompt = `Analyze this image to create a "memory bead".
1. Provide a short, poetic, abstract title (max 3 words) in the style of a distinct memory (e.g., "Summer Rain", "Lost Key", "Grandma's Chair").
2. Create a gentle, nostalgic question/prompt asking the user to expand on the story behind this object.
3. Extract a single hex color code that represents the "mood" of the object (soft, pastel preferred).
Return JSON.`

const reflectionPrompt = `The user has a memory bead titled "%s". Their story is: "%s".
Generate 3 distinct, short, deep, and evocative questions to help them recall more sensory details or emotional context.
Examples: "What was the weather like?", "Who was standing next to you?", "Did this change how you see yourself?".
Max 15 words per question. Return as a JSON array of strings.`
